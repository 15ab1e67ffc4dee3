// Package animedex embeds the anime discovery engine in a Go program.
//
// The client loads a catalog (CSV files, a trained model file, Redis/Valkey
// hashes, a SQLite table or an in-memory slice), builds a TF-IDF index over the
// titles and synopses, and answers discovery queries without a network hop.
//
//	client, _ := animedex.New(ctx, animedex.WithCSV("data/*.csv"))
//	defer client.Close()
//
//	hits, _ := client.Discover().
//	    Query("space pirates").
//	    Type("TV").
//	    MinScore(8).
//	    Limit(10).
//	    Do(ctx)
//
//	similar, _ := client.Discover().Seed(hits[0].Anime.ID).Do(ctx)
//
// Reload rebuilds the index from the same source; readers keep the previous
// snapshot until the new one is ready.
package animedex
