// Package printing holds the printable documents of the procurement context
// and the page layout they are rendered with.
package printing
