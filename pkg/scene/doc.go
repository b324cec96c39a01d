// Package scene holds the placed objects of one editing session and the
// attachment engine that snaps them together at point junctions and along
// curve junctions.
//
// A Session is an arena: objects refer to each other by ObjectID, never by
// pointer, and every connection is recorded on both sides. Sessions are not
// safe for concurrent use; callers serialize access.
package scene
