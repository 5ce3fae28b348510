// Package journal keeps a bounded history of governor decisions for the
// status view.
package journal
