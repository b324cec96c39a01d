package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/chazu/luxframe/pkg/geom"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// OpenPostgres opens the tenant catalog database through the pgx driver.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: ping postgres: %w", err)
	}
	return db, nil
}

// LoadPostgres reads every entry, family and joiner that belongs to tenant.
func LoadPostgres(ctx context.Context, db *sql.DB, tenant string) (*Catalog, error) {
	entries, index, err := loadObjects(ctx, db, tenant)
	if err != nil {
		return nil, err
	}
	if err := loadJunctions(ctx, db, tenant, entries, index); err != nil {
		return nil, err
	}
	if err := loadCurves(ctx, db, tenant, entries, index); err != nil {
		return nil, err
	}
	families, err := loadFamilies(ctx, db, tenant)
	if err != nil {
		return nil, err
	}
	joiners, err := loadJoiners(ctx, db, tenant)
	if err != nil {
		return nil, err
	}
	return New(entries, families, joiners)
}

func loadObjects(ctx context.Context, db *sql.DB, tenant string) ([]Entry, map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT code, power, system, price_cents FROM objects WHERE tenant = $1`, tenant)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: query objects: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	index := make(map[string]int)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Code, &e.Power, &e.System, &e.PriceCents); err != nil {
			return nil, nil, fmt.Errorf("catalog: scan object: %w", err)
		}
		index[e.Code] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("catalog: iterate objects: %w", err)
	}
	return entries, index, nil
}

func loadJunctions(ctx context.Context, db *sql.DB, tenant string, entries []Entry, index map[string]int) error {
	rows, err := db.QueryContext(ctx, `
		SELECT code, COALESCE(groups, ''),
		       COALESCE(x, -1), COALESCE(y, -1), COALESCE(z, -1),
		       COALESCE(angle, 0)
		FROM view_junctions WHERE tenant = $1`, tenant)
	if err != nil {
		return fmt.Errorf("catalog: query junctions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code    string
			j       Junction
			x, y, z float64
		)
		if err := rows.Scan(&code, &j.Group, &x, &y, &z, &j.Angle); err != nil {
			return fmt.Errorf("catalog: scan junction: %w", err)
		}
		i, ok := index[code]
		if !ok {
			continue
		}
		j.Offset = geom.V(x, y, z)
		entries[i].Juncts = append(entries[i].Juncts, j)
	}
	return rows.Err()
}

func loadCurves(ctx context.Context, db *sql.DB, tenant string, entries []Entry, index map[string]int) error {
	rows, err := db.QueryContext(ctx, `
		SELECT code, COALESCE(groups, ''),
		       COALESCE(j1x, -1), COALESCE(j1y, -1), COALESCE(j1z, -1),
		       COALESCE(jcx, -1), COALESCE(jcy, -1), COALESCE(jcz, -1),
		       COALESCE(j2x, -1), COALESCE(j2y, -1), COALESCE(j2z, -1)
		FROM view_curves WHERE tenant = $1`, tenant)
	if err != nil {
		return fmt.Errorf("catalog: query curves: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code string
			l    LineJunction
			p    [9]float64
		)
		if err := rows.Scan(&code, &l.Group,
			&p[0], &p[1], &p[2], &p[3], &p[4], &p[5], &p[6], &p[7], &p[8]); err != nil {
			return fmt.Errorf("catalog: scan curve: %w", err)
		}
		i, ok := index[code]
		if !ok {
			continue
		}
		l.Point1 = geom.V(p[0], p[1], p[2])
		l.PointC = geom.V(p[3], p[4], p[5])
		l.Point2 = geom.V(p[6], p[7], p[8])
		entries[i].LineJuncts = append(entries[i].LineJuncts, l)
	}
	return rows.Err()
}

func loadFamilies(ctx context.Context, db *sql.DB, tenant string) ([]Family, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT code, displayname, familygroup, system, COALESCE(ledfamily, ''),
		       visible, isled, arbitrarylength,
		       needscolorconfig, needscurveconfig, needslengthconfig, needsledconfig
		FROM families WHERE tenant = $1`, tenant)
	if err != nil {
		return nil, fmt.Errorf("catalog: query families: %w", err)
	}
	defer rows.Close()

	var families []Family
	byCode := make(map[string]int)
	for rows.Next() {
		var f Family
		if err := rows.Scan(&f.Code, &f.DisplayName, &f.Group, &f.System, &f.LedFamily,
			&f.Visible, &f.IsLed, &f.ArbitraryLength,
			&f.NeedsColorConfig, &f.NeedsCurveConfig, &f.NeedsLengthConfig, &f.NeedsLedConfig); err != nil {
			return nil, fmt.Errorf("catalog: scan family: %w", err)
		}
		// Split here so family_objects rows can address each code.
		for _, code := range strings.Split(f.Code, "+") {
			g := f
			g.Code = code
			byCode[code] = len(families)
			families = append(families, g)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate families: %w", err)
	}

	items, err := db.QueryContext(ctx, `
		SELECT familycode, objectcode, COALESCE(angle, -1), COALESCE(len, -1),
		       COALESCE(radius, -1), COALESCE(color, ''), desc1, desc2
		FROM family_objects WHERE tenant = $1`, tenant)
	if err != nil {
		return nil, fmt.Errorf("catalog: query family objects: %w", err)
	}
	defer items.Close()

	for items.Next() {
		var (
			famCodes string
			it       FamilyItem
		)
		if err := items.Scan(&famCodes, &it.Code, &it.Deg, &it.Len, &it.Radius,
			&it.Color, &it.Desc1, &it.Desc2); err != nil {
			return nil, fmt.Errorf("catalog: scan family object: %w", err)
		}
		for _, code := range strings.Split(famCodes, "+") {
			i, ok := byCode[code]
			if !ok {
				continue
			}
			families[i].Items = append(families[i].Items, adjustItem(&families[i], it))
		}
	}
	if err := items.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate family objects: %w", err)
	}
	return families, nil
}

// adjustItem corrects straight XNet profiles, which the database lists at
// 1000mm although they ship at 2500mm.
func adjustItem(f *Family, it FamilyItem) FamilyItem {
	if !strings.EqualFold(f.System, "xnet") {
		return it
	}
	isProfile := strings.Contains(strings.ToLower(f.Group), "profil") ||
		strings.Contains(strings.ToLower(f.DisplayName), "profil")
	straight := isProfile && it.Straight() && !strings.Contains(strings.ToLower(it.Code), "c")
	if !straight {
		return it
	}
	if it.Len == 1000 {
		it.Len = 2500
	}
	if it.Radius == 1000 {
		it.Radius = 2500
	}
	return it
}

func loadJoiners(ctx context.Context, db *sql.DB, tenant string) ([]Joiner, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT group_code, object_code FROM joiners WHERE tenant = $1`, tenant)
	if err != nil {
		return nil, fmt.Errorf("catalog: query joiners: %w", err)
	}
	defer rows.Close()

	var out []Joiner
	for rows.Next() {
		var j Joiner
		if err := rows.Scan(&j.Group, &j.Code); err != nil {
			return nil, fmt.Errorf("catalog: scan joiner: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
