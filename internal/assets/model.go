package assets

// Asset is an ingested image available at a public URL.
type Asset struct {
	Key         string
	ContentType string
	SizeBytes   int64
	URL         string
}
