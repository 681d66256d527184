// Package sdk provides a Go client for the crosslink hybrid search API.
//
//	client := sdk.NewClient("http://localhost:8080")
//	resp, err := client.Search(ctx, "access control policy")
//	for _, m := range resp.Matches {
//	    fmt.Println(m.Rank, m.ID, m.Scores.Combined)
//	}
//
// Per-request configuration overrides tune a single search without touching
// the server's installed configuration:
//
//	resp, err := client.Search(ctx, "access control policy",
//	    sdk.WithOverride("enable_reranking", true),
//	    sdk.WithOverride("vector_weight", 0.8),
//	)
package sdk
