package snapshot

// Persistence

type WriteResult struct {
	path        string
	contentHash string
	bytes       int
}

func NewWriteResult(
	path string,
	contentHash string,
	bytes int,
) WriteResult {
	return WriteResult{
		path:        path,
		contentHash: contentHash,
		bytes:       bytes,
	}
}

func (w *WriteResult) Path() string {
	return w.path
}

func (w *WriteResult) ContentHash() string {
	return w.contentHash
}

func (w *WriteResult) Bytes() int {
	return w.bytes
}
