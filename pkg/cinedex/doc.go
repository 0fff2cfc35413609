// Package cinedex provides an embeddable movie catalog with a registrable
// query engine.
//
// A catalog file is loaded once into an immutable in-memory collection;
// all queries run against that snapshot. Two serializations are supported,
// selected by file extension: pipe-delimited tabular text (.txt) and a
// structured YAML list (.yml, .yaml).
//
//	client, _ := cinedex.Open("data/movies.txt")
//	movie, ok, _ := client.Find("pulp fiction")
//	top, _ := client.SortedBy("rating", nil)
//
// Sort algorithms and filter predicates are registrable; the standard set
// is installed by default and custom ones can be added:
//
//	client.RegisterSort("title_length", func(m cinedex.Movie) cinedex.Key {
//	    return cinedex.Key{len(m.Name())}
//	})
//	client.RegisterFilter("decade", func(m cinedex.Movie, arg any) bool {
//	    d, ok := arg.(int)
//	    return ok && m.Year()/10*10 == d
//	})
package cinedex
