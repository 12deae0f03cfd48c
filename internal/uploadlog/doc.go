// Package uploadlog records every upload attempt as one row of a CSV file
// and derives the history views (tail, statistics, text export) from it.
package uploadlog
