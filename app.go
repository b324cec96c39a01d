package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/chazu/luxframe/pkg/assets"
	"github.com/chazu/luxframe/pkg/catalog"
	"github.com/chazu/luxframe/pkg/config"
	"github.com/chazu/luxframe/pkg/engine"
	"github.com/chazu/luxframe/pkg/geom"
	"github.com/chazu/luxframe/pkg/handles"
	"github.com/chazu/luxframe/pkg/kernel"
	"github.com/chazu/luxframe/pkg/kernel/sdfx"
	"github.com/chazu/luxframe/pkg/project"
	"github.com/chazu/luxframe/pkg/scene"
	"github.com/chazu/luxframe/pkg/tessellate"
)

// meshColor is the colour of generated profiles in the viewport.
const meshColor = "#2B2B2B"

// App is the Wails backend. It exposes methods to the frontend via bindings.
// Every binding holds mu: the session is single-threaded.
type App struct {
	ctx context.Context
	cfg *config.Config

	mu      sync.Mutex
	cat     *catalog.Catalog
	session *scene.Session
	handles *handles.Manager
	project *project.Project
	store   *project.Store
	engine  *engine.Engine
	kernel  kernel.Kernel
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Object   string    `json:"object"`
	Color    string    `json:"color"`
}

// HandleData is one attachment target as drawn by the frontend.
type HandleData struct {
	Kind     string     `json:"kind"`
	Host     string     `json:"host"`
	Slot     int        `json:"slot"`
	Enabled  bool       `json:"enabled"`
	Reason   string     `json:"reason,omitempty"`
	Position geom.Vec   `json:"position"`
	Path     []geom.Vec `json:"path,omitempty"`
	Color    uint32     `json:"color"`
	Scale    float64    `json:"scale"`
	Visible  bool       `json:"visible"`
}

// ArrowData is a rotation cue.
type ArrowData struct {
	Origin geom.Vec `json:"origin"`
	Dir    geom.Vec `json:"dir"`
	Length float64  `json:"length"`
	Color  uint32   `json:"color"`
}

// HandleSet is the handle state after a selection, hover or tick.
type HandleSet struct {
	Selected string       `json:"selected"`
	Handles  []HandleData `json:"handles"`
	Arrows   []ArrowData  `json:"arrows"`
	Hovered  int          `json:"hovered"` // -1 when nothing is hovered
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ScriptResult is the full result of RunScript.
type ScriptResult struct {
	Parts  map[string]string `json:"parts"`
	Value  string            `json:"value"`
	Meshes []MeshData        `json:"meshes"`
	Errors []EvalErrorData   `json:"errors"`
}

// EditData is the configuration submitted when a part is committed.
type EditData struct {
	Family       string           `json:"family"`
	Item         string           `json:"item"`
	Reference    *scene.Reference `json:"reference,omitempty"`
	Group        string           `json:"group"`
	Led          string           `json:"led"`
	Length       float64          `json:"length"`
	CustomLength bool             `json:"customLength"`
}

// IssueData is one validation finding.
type IssueData struct {
	Object   string `json:"object"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// NewApp creates an App with an empty catalog. The real catalog, asset
// loader and project store are opened in startup.
func NewApp(cfg *config.Config) *App {
	cat, _ := catalog.New(nil, nil, nil)
	a := newApp(cat, assets.Static{}, nil)
	a.cfg = cfg
	return a
}

// newApp wires an App around explicit dependencies.
func newApp(cat *catalog.Catalog, loader assets.Loader, store *project.Store) *App {
	k := sdfx.New()
	s := scene.New(cat, loader, scene.WithKernel(k), scene.WithLogger(log.Default()))
	return &App{
		ctx:     context.Background(),
		cat:     cat,
		session: s,
		handles: handles.New(s),
		project: project.New(),
		store:   store,
		engine:  engine.NewEngine(),
		kernel:  k,
	}
}

// startup is called by Wails on app startup. Failing sources are logged
// and leave the corresponding feature unavailable.
func (a *App) startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ctx = ctx

	if a.cfg == nil {
		return
	}
	cat, err := openCatalog(ctx, a.cfg)
	if err != nil {
		log.Printf("catalog unavailable: %v", err)
		cat = a.cat
	}
	loader, err := openLoader(a.cfg)
	if err != nil {
		log.Printf("model assets unavailable: %v", err)
		loader = assets.Static{}
	}
	store, err := project.Open(a.cfg.Project.DBPath)
	if err != nil {
		log.Printf("project store unavailable: %v", err)
	}

	room := scene.Room{Width: a.cfg.Room.Width, Height: a.cfg.Room.Height, Depth: a.cfg.Room.Depth}
	a.cat = cat
	a.session = scene.New(cat, loader, scene.WithKernel(a.kernel), scene.WithLogger(log.Default()), scene.WithRoom(room))
	a.handles = handles.New(a.session)
	a.project = project.New()
	a.store = store
	log.Printf("catalog loaded: %d entries, %d families", cat.Len(), len(cat.Families()))
}

// shutdown is called by Wails when the window closes.
func (a *App) shutdown(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Printf("closing project store: %v", err)
		}
	}
}

func openCatalog(ctx context.Context, cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.UsePostgres() {
		db, err := catalog.OpenPostgres(ctx, cfg.Catalog.DSN)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return catalog.LoadPostgres(ctx, db, cfg.Tenant)
	}
	return catalog.LoadYAMLFile(cfg.Catalog.Path)
}

func openLoader(cfg *config.Config) (assets.Loader, error) {
	var src assets.Source = assets.DirSource{Root: cfg.Assets.Dir}
	if cfg.Assets.UseS3() {
		ms, err := assets.NewMinioSource(assets.MinioConfig{
			Endpoint:  cfg.Assets.Endpoint,
			Region:    cfg.Assets.Region,
			AccessKey: cfg.Assets.AccessKey,
			SecretKey: cfg.Assets.SecretKey,
			Bucket:    cfg.Assets.Bucket,
			UseSSL:    cfg.Assets.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		src = ms
	}
	return assets.NewCached(assets.NewGLBLoader(src), cfg.Assets.CacheSize)
}

// ---------------------------------------------------------------------------
// Catalog and placement
// ---------------------------------------------------------------------------

// Catalog returns the families shown in the part picker.
func (a *App) Catalog() []*catalog.Family {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := []*catalog.Family{}
	for _, f := range a.cat.Families() {
		if f.Visible {
			out = append(out, f)
		}
	}
	return out
}

// AddObject places a catalog part and returns its id.
func (a *App) AddObject(code string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, err := a.session.AddObject(a.ctx, code)
	if err != nil {
		if scene.Classify(err) == scene.FailureLoad {
			log.Printf("model for %s failed to load: %v", code, err)
		}
		return "", err
	}
	return string(id), nil
}

// AddExtruded places a profile generated at length metres.
func (a *App) AddExtruded(code string, length float64) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, err := a.session.AddExtruded(code, length)
	if err != nil {
		return "", err
	}
	return string(id), nil
}

// Snapshot returns the scene for drawing.
func (a *App) Snapshot() scene.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Snapshot()
}

// Rotate steps a connector to its next junction.
func (a *App) Rotate(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.Rotate(scene.ObjectID(id))
}

// MoveLight slides a light along its curve and returns the curve group.
func (a *App) MoveLight(id string, position float64) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session.RelocateLight(scene.ObjectID(id), position)
}

// Remove deletes an object and its bill of materials lines.
func (a *App) Remove(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.project.Remove(a.session, scene.ObjectID(id)); err != nil {
		return err
	}
	a.handles.Clear()
	return nil
}

// ---------------------------------------------------------------------------
// Handles
// ---------------------------------------------------------------------------

// SelectObject shows the attachment targets for code.
func (a *App) SelectObject(code string) (HandleSet, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.handles.SelectObject(code); err != nil {
		return HandleSet{Hovered: -1}, err
	}
	a.handles.SetVisible(true)
	return a.handleSet(), nil
}

// Hover tests a pick ray from the viewport against the handles.
func (a *App) Hover(origin, dir geom.Vec) HandleSet {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.handles.Hover(geom.NewRay(origin, dir))
	return a.handleSet()
}

// Tick advances the handle animation for the current zoom.
func (a *App) Tick(zoom float64) HandleSet {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.handles.Tick(zoom)
	return a.handleSet()
}

// Click attaches child at the hovered handle and returns the group.
func (a *App) Click(child string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	group, err := a.handles.Click(scene.ObjectID(child))
	if err != nil {
		log.Printf("attach %s rejected (%s): %v", child, scene.Classify(err), err)
		return "", err
	}
	return group, nil
}

func (a *App) handleSet() HandleSet {
	set := HandleSet{
		Selected: a.handles.Selected(),
		Handles:  []HandleData{},
		Arrows:   []ArrowData{},
		Hovered:  -1,
	}
	for _, h := range a.handles.Handles() {
		set.Handles = append(set.Handles, HandleData{
			Kind:     h.Kind.String(),
			Host:     string(h.Host),
			Slot:     h.Slot,
			Enabled:  h.Enabled,
			Reason:   h.Reason,
			Position: h.Position,
			Path:     h.Path,
			Color:    h.Color,
			Scale:    h.Scale,
			Visible:  h.Visible,
		})
	}
	for _, ar := range a.handles.Arrows() {
		set.Arrows = append(set.Arrows, ArrowData{Origin: ar.Origin, Dir: ar.Dir, Length: ar.Length, Color: ar.Color})
	}
	if hit, ok := a.handles.Hovered(); ok {
		set.Hovered = hit.Handle
	}
	return set
}

// ---------------------------------------------------------------------------
// Project
// ---------------------------------------------------------------------------

// Finish commits a placed part to the bill of materials.
func (a *App) Finish(id string, ed EditData) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.project.Finish(a.session, scene.ObjectID(id), project.Edit{
		Family:       ed.Family,
		Item:         ed.Item,
		Reference:    ed.Reference,
		Group:        ed.Group,
		Led:          ed.Led,
		Length:       ed.Length,
		CustomLength: ed.CustomLength,
	})
}

// SavedObjects returns the visible bill of materials lines.
func (a *App) SavedObjects() []project.SavedObject {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := a.project.Visible()
	if out == nil {
		out = []project.SavedObject{}
	}
	return out
}

// PowerBudget returns the net power of the project in watts.
func (a *App) PowerBudget() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return project.PowerBudget(a.cat, a.project.Objects)
}

// Validate checks the scene's structural invariants.
func (a *App) Validate() []IssueData {
	a.mu.Lock()
	defer a.mu.Unlock()

	issues := []IssueData{}
	for _, ve := range a.session.Validate() {
		issues = append(issues, IssueData{
			Object:   string(ve.Object),
			Message:  ve.Message,
			Severity: ve.Severity.String(),
		})
	}
	return issues
}

// SaveProject stores the project and its scene under name.
func (a *App) SaveProject(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store == nil {
		return fmt.Errorf("project store unavailable")
	}
	return a.store.Save(a.ctx, name, a.project.Document(a.session))
}

// LoadProject replaces the scene and the bill of materials with a stored
// project.
func (a *App) LoadProject(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store == nil {
		return fmt.Errorf("project store unavailable")
	}
	doc, err := a.store.Load(a.ctx, name)
	if err != nil {
		return err
	}
	if err := a.project.Restore(a.ctx, a.session, doc); err != nil {
		return err
	}
	a.handles.Clear()
	return nil
}

// ListProjects returns the stored projects by name.
func (a *App) ListProjects() ([]project.Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store == nil {
		return []project.Summary{}, nil
	}
	return a.store.List(a.ctx)
}

// DeleteProject removes a stored project. The open session is untouched.
func (a *App) DeleteProject(name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.store == nil {
		return fmt.Errorf("project store unavailable")
	}
	return a.store.Delete(a.ctx, name)
}

// ---------------------------------------------------------------------------
// Scripts and meshes
// ---------------------------------------------------------------------------

// RunScript evaluates a scene script against the session. The session is
// only changed when the script succeeds.
func (a *App) RunScript(source string) ScriptResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := ScriptResult{
		Parts:  map[string]string{},
		Meshes: []MeshData{},
		Errors: []EvalErrorData{},
	}

	res, evalErrs, err := a.engine.Evaluate(a.ctx, a.session, source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("RunScript fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	for name, id := range res.Parts {
		result.Parts[name] = string(id)
	}
	result.Value = res.Value
	a.handles.Clear()

	meshes, err := a.meshes()
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}
	result.Meshes = meshes
	return result
}

// Meshes returns the world-space meshes of every generated profile.
func (a *App) Meshes() ([]MeshData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.meshes()
}

func (a *App) meshes() ([]MeshData, error) {
	meshes, err := tessellate.Scene(a.session, a.kernel)
	if err != nil {
		return nil, err
	}
	out := make([]MeshData, 0, len(meshes))
	for _, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Object:   m.Part,
			Color:    meshColor,
		})
	}
	return out, nil
}
