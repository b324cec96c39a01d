// Package catalog holds the read-only description of every part a customer
// can place: point junctions, curve junctions, families and joiners.
// A Catalog is built once per session and shared by every placed object.
package catalog
