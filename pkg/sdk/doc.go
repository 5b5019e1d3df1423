// Package pdfsearch embeds the PDF search engine in a Go program, without the
// HTTP service in front of it.
//
// The client talks to Redis 8+ (Query Engine built in) directly and runs the
// same ingestion pipeline and hybrid search as the server:
//
//	client, _ := pdfsearch.New(ctx, pdfsearch.WithRedis("localhost:6379", ""))
//	defer client.Close()
//	_ = client.EnsureIndex(ctx)
//
//	res, _ := client.Index(ctx, []map[string]any{
//	    {"pdf_id": "report-2024", "page": 3, "type": "text", "text": "Revenue grew 12%"},
//	})
//	hits, _ := client.Search(ctx, pdfsearch.SearchRequest{Query: "revenue", K: 5})
//
// Without WithEmbedder the client uses deterministic placeholder vectors,
// which keeps keyword search meaningful and vector search reproducible.
package pdfsearch
