package tools

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/cavaliergopher/grab/v3"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ideal-genom/gwaskit/internal/indexing"
	"github.com/ideal-genom/gwaskit/internal/sphinx"
)

const (
	docsBaseURL   = "https://ideal-genom.readthedocs.io/en/latest"
	cacheTTL      = 7 * 24 * time.Hour
	searchIndexJS = "docs/searchindex.js"
	pagesDir      = "docs/pages"
	cacheMetaFile = "docs/cache.meta"
	indexDir      = "search/index"
	lockFile      = "search/index.lock"
	lockTimeout   = 5 * time.Second
	lockRetryWait = 500 * time.Millisecond

	indexVersionFile = "search/.index_version"

	embeddedSearchIndex = "data/docs/searchindex.js"
	embeddedPagesDir    = "data/docs/pages"
)

var (
	dataDir string // local storage for documentation and the search index
)

func init() {
	// Strategy 1: user home directory (standalone installation).
	homeDir, err := os.UserHomeDir()
	if err == nil {
		userDataDir := filepath.Join(homeDir, ".gwaskit")

		if info, err := os.Stat(userDataDir); err == nil && info.IsDir() {
			dataDir = userDataDir
			log.Printf("Data directory: %s (user home)", dataDir)
			return
		}

		if err := os.MkdirAll(userDataDir, 0755); err == nil {
			dataDir = userDataDir
			log.Printf("Data directory created: %s", dataDir)

			os.MkdirAll(filepath.Join(dataDir, "docs"), 0755)
			os.MkdirAll(filepath.Join(dataDir, "search"), 0755)
			return
		}

		log.Printf("Warning: Could not create user data directory at %s: %v", userDataDir, err)
	} else {
		log.Printf("Warning: Could not determine user home directory: %v", err)
	}

	// Strategy 2: fallback to the working directory.
	dataDir = filepath.Join(".", "data")
	log.Printf("Data directory (fallback): %s", dataDir)

	os.MkdirAll(filepath.Join(dataDir, "docs"), 0755)
	os.MkdirAll(filepath.Join(dataDir, "search"), 0755)
}

// isProcessRunning is implemented in platform-specific files:
// - docsearch_unix.go for Unix/Linux/macOS
// - docsearch_windows.go for Windows

// cleanStaleLock removes the lock file if the owning process is dead.
func cleanStaleLock() error {
	lockPath := filepath.Join(dataDir, lockFile)

	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lock file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		log.Printf("Warning: Corrupted lock file (invalid PID), removing...")
		return os.Remove(lockPath)
	}

	if isProcessRunning(pid) {
		return fmt.Errorf("lock held by running process %d", pid)
	}

	log.Printf("Stale lock detected (PID %d not running), cleaning...", pid)
	return os.Remove(lockPath)
}

// acquireLock acquires the inter-process index lock, waiting out a holder
// for up to lockTimeout.
func acquireLock() error {
	lockPath := filepath.Join(dataDir, lockFile)
	ourPID := os.Getpid()

	// Re-entrant: the lock may already be ours.
	if data, err := os.ReadFile(lockPath); err == nil {
		if pidStr := strings.TrimSpace(string(data)); pidStr != "" {
			if pid, err := strconv.Atoi(pidStr); err == nil && pid == ourPID {
				return nil
			}
		}
	}

	startTime := time.Now()

	for {
		if err := cleanStaleLock(); err != nil {
			elapsed := time.Since(startTime)
			if elapsed >= lockTimeout {
				return fmt.Errorf("timeout waiting for index lock after %v: %w", elapsed, err)
			}

			log.Printf("Index locked by another process, waiting... (%v elapsed)", elapsed.Round(100*time.Millisecond))
			time.Sleep(lockRetryWait)
			continue
		}

		if err := os.WriteFile(lockPath, []byte(strconv.Itoa(ourPID)), 0644); err != nil {
			return fmt.Errorf("failed to create lock file: %w", err)
		}

		log.Printf("Index lock acquired (PID %d)", ourPID)
		return nil
	}
}

// releaseLock releases the index lock if this process owns it.
func releaseLock() error {
	lockPath := filepath.Join(dataDir, lockFile)

	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lock file: %w", err)
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err == nil && pid != os.Getpid() {
		log.Printf("Warning: Lock file contains different PID (%d vs %d), not removing", pid, os.Getpid())
		return nil
	}

	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}

	return nil
}

// SearchResult is one full-text search hit with its relevance score.
type SearchResult struct {
	Chunk indexing.DocChunk `json:"chunk"`
	Score float64           `json:"score"`
}

// SearchDocsInput defines input for the search_docs tool.
type SearchDocsInput struct {
	Query      string `json:"query" jsonschema:"Search query for the pipeline documentation"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10)"`
}

// SearchDocsOutput defines output for the search_docs tool.
type SearchDocsOutput struct {
	Results   []SearchResult `json:"results"`
	Query     string         `json:"query"`
	TotalHits int            `json:"total_hits"`
	SourceURL string         `json:"source_url"`
}

// LookupTermInput defines input for the lookup_term tool.
type LookupTermInput struct {
	Query string `json:"query" jsonschema:"One or more terms; pages matching every term are returned"`
}

// LookupTermOutput defines output for the lookup_term tool.
type LookupTermOutput struct {
	Hits     []sphinx.Hit     `json:"hits"`
	Sections []sphinx.Section `json:"sections"`
	Query    string           `json:"query"`
}

// RefreshDocsIndexInput defines input for the refresh_docs_index tool.
type RefreshDocsIndexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Force re-download and re-indexing (optional, defaults to false)"`
}

// RefreshDocsIndexOutput defines output for the refresh_docs_index tool.
type RefreshDocsIndexOutput struct {
	Updated       bool      `json:"updated"`
	LastUpdate    time.Time `json:"last_update"`
	ChunksIndexed int       `json:"chunks_indexed"`
	Message       string    `json:"message"`
}

// indexHolder manages concurrent access to the bleve index and the parsed
// Sphinx index.
type indexHolder struct {
	// current holds the active bleve index (atomic access, lock-free reads).
	current atomic.Pointer[Index]

	// querier answers exact-term lookups against the parsed searchindex.js.
	querier atomic.Pointer[sphinx.Querier]

	// refreshMu serializes refresh operations. Searches never take it.
	refreshMu sync.Mutex

	// wg tracks in-flight searches so an old index can be closed once they
	// drain.
	wg sync.WaitGroup
}

var (
	indexMgr *indexHolder
)

// loadSearchIndex parses and validates searchindex.js, preferring a locally
// refreshed copy over the embedded one.
func loadSearchIndex() (*sphinx.Index, error) {
	localPath := filepath.Join(dataDir, searchIndexJS)
	if data, err := os.ReadFile(localPath); err == nil {
		idx, err := sphinx.Parse(data)
		if err == nil {
			if err := idx.Validate(); err == nil {
				return idx, nil
			}
			log.Printf("Warning: local searchindex.js is inconsistent, falling back to embedded copy")
		} else {
			log.Printf("Warning: local searchindex.js unparseable (%v), falling back to embedded copy", err)
		}
	}

	data, err := defaultDataProvider.ReadFile(embeddedSearchIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded search index: %w", err)
	}
	idx, err := sphinx.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded search index: %w", err)
	}
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("embedded search index is inconsistent: %w", err)
	}
	return idx, nil
}

// loadPagesFS returns the filesystem holding the plain-text page exports,
// preferring locally refreshed pages over the embedded ones.
func loadPagesFS() (fs.FS, error) {
	localPages := filepath.Join(dataDir, pagesDir)
	if info, err := os.Stat(localPages); err == nil && info.IsDir() {
		if entries, err := os.ReadDir(localPages); err == nil && len(entries) > 0 {
			return os.DirFS(localPages), nil
		}
	}

	if p, ok := defaultDataProvider.(*embeddedDataProvider); ok {
		return fs.Sub(p.fs, embeddedPagesDir)
	}
	// Mock provider path: adapt DataProvider to fs.FS semantics.
	return &providerFS{provider: defaultDataProvider, root: embeddedPagesDir}, nil
}

// providerFS adapts a DataProvider to the read-only subset of fs.FS that
// indexing.BuildChunks needs.
type providerFS struct {
	provider DataProvider
	root     string
}

func (p *providerFS) Open(name string) (fs.File, error) {
	data, err := p.provider.ReadFile(p.root + "/" + name)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &memFile{name: name, data: data}, nil
}

type memFile struct {
	name   string
	data   []byte
	offset int
}

func (f *memFile) Stat() (fs.FileInfo, error) {
	return &mockFileInfo{name: f.name}, nil
}

func (f *memFile) Read(b []byte) (int, error) {
	if f.offset >= len(f.data) {
		return 0, io.EOF
	}
	n := copy(b, f.data[f.offset:])
	f.offset += n
	return n, nil
}

func (f *memFile) Close() error { return nil }

// InitializeDocSearch loads the Sphinx index and opens (or builds) the bleve
// index. Priority: local index from a previous refresh, then a fresh build
// from the embedded documentation.
func InitializeDocSearch() error {
	startTime := time.Now()
	log.Printf("Initializing documentation search...")

	if indexMgr == nil {
		indexMgr = &indexHolder{}
	}

	if err := acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire index lock: %w", err)
	}

	idx, err := loadSearchIndex()
	if err != nil {
		return err
	}
	indexMgr.querier.Store(sphinx.NewQuerier(idx))

	indexPath := filepath.Join(dataDir, indexDir)

	// Strategy 1: open the local bleve index from a previous run.
	if _, err := os.Stat(indexPath); err == nil {
		currentVersion := getIndexVersion()
		if currentVersion != indexing.IndexSchemaVersion {
			log.Printf("Index schema version mismatch (have: v%d, want: v%d), invalidating old index...",
				currentVersion, indexing.IndexSchemaVersion)
			os.RemoveAll(indexPath)
			os.Remove(filepath.Join(dataDir, indexVersionFile))
		} else {
			index, err := bleve.Open(indexPath)
			if err == nil {
				wrapped := NewBleveIndexWrapper(index)
				indexMgr.current.Store(&wrapped)
				count, _ := wrapped.DocCount()
				log.Printf("Documentation search initialized (%d chunks, local index v%d) in %v",
					count, indexing.IndexSchemaVersion, time.Since(startTime).Round(time.Millisecond))

				if needsRefresh() {
					log.Printf("Local documentation is >7 days old. Consider the refresh_docs_index tool.")
				}
				return nil
			}

			log.Printf("Warning: Local index corrupted, removing...")
			os.RemoveAll(indexPath)
			os.Remove(filepath.Join(dataDir, indexVersionFile))
		}
	}

	// Strategy 2: build from the embedded documentation.
	log.Printf("No local index found, building from embedded documentation...")
	pages, err := loadPagesFS()
	if err != nil {
		return fmt.Errorf("failed to open page exports: %w", err)
	}
	chunks, err := indexing.BuildChunks(idx, pages, docsBaseURL)
	if err != nil {
		return fmt.Errorf("failed to chunk documentation: %w", err)
	}
	if err := indexChunks(chunks); err != nil {
		return fmt.Errorf("failed to build search index: %w", err)
	}

	count := 0
	if ptr := indexMgr.current.Load(); ptr != nil {
		c, _ := (*ptr).DocCount()
		count = int(c)
	}
	log.Printf("Documentation search initialized (%d chunks, built from embedded docs) in %v",
		count, time.Since(startTime).Round(time.Millisecond))

	return nil
}

// getIndexVersion reads the index schema version file.
func getIndexVersion() int {
	versionPath := filepath.Join(dataDir, indexVersionFile)
	data, err := os.ReadFile(versionPath)
	if err != nil {
		return 0
	}

	version := 0
	fmt.Sscanf(string(data), "%d", &version)
	return version
}

// writeIndexVersion marks the on-disk index with the current schema version.
func writeIndexVersion() error {
	versionPath := filepath.Join(dataDir, indexVersionFile)
	os.MkdirAll(filepath.Dir(versionPath), 0755)

	content := fmt.Sprintf("%d", indexing.IndexSchemaVersion)
	return os.WriteFile(versionPath, []byte(content), 0644)
}

// needsRefresh reports whether the documentation cache is older than the TTL.
func needsRefresh() bool {
	metaPath := filepath.Join(dataDir, cacheMetaFile)
	info, err := os.Stat(metaPath)
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) > cacheTTL
}

// downloadDocumentation fetches searchindex.js and every page export it
// references into the local docs cache.
func downloadDocumentation(ctx context.Context) (*sphinx.Index, error) {
	log.Printf("Downloading documentation from %s", docsBaseURL)

	docsPath := filepath.Join(dataDir, "docs")
	if err := os.MkdirAll(filepath.Join(docsPath, "pages"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create docs directory: %w", err)
	}

	client := grab.NewClient()

	indexDst := filepath.Join(dataDir, searchIndexJS)
	req, err := grab.NewRequest(indexDst, docsBaseURL+"/searchindex.js")
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)
	resp := client.Do(req)
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("failed to download search index: %w", err)
	}

	idx, err := sphinx.Load(indexDst)
	if err != nil {
		return nil, fmt.Errorf("downloaded search index unparseable: %w", err)
	}
	if err := idx.Validate(); err != nil {
		return nil, fmt.Errorf("downloaded search index is inconsistent: %w", err)
	}

	for _, docName := range idx.DocNames {
		dst := filepath.Join(dataDir, pagesDir, docName+".txt")
		req, err := grab.NewRequest(dst, fmt.Sprintf("%s/_sources/%s.txt", docsBaseURL, docName))
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)
		resp := client.Do(req)
		if err := resp.Err(); err != nil {
			// Orphaned index entries have no export; skip them.
			log.Printf("Warning: no page export for %s: %v", docName, err)
			os.Remove(dst)
		}
	}

	metaPath := filepath.Join(dataDir, cacheMetaFile)
	meta := fmt.Sprintf("last_update: %s\n", time.Now().Format(time.RFC3339))
	if err := os.WriteFile(metaPath, []byte(meta), 0644); err != nil {
		return nil, fmt.Errorf("failed to write cache metadata: %w", err)
	}

	log.Printf("Documentation downloaded (%d pages)", idx.DocCount())
	return idx, nil
}

// averageTokens is the mean estimated token count across chunks.
func averageTokens(chunks []indexing.DocChunk) int {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, chunk := range chunks {
		total += chunk.TokenCount
	}
	return total / len(chunks)
}

// indexChunks builds a fresh bleve index in a temp location, atomically
// swaps it into place, and retires the old index once in-flight searches
// drain.
func indexChunks(chunks []indexing.DocChunk) error {
	indexPath := filepath.Join(dataDir, indexDir)
	tempIndexPath := filepath.Join(dataDir, indexDir+".tmp")

	// Leftover temp index from a previous crash.
	os.RemoveAll(tempIndexPath)

	if err := os.MkdirAll(filepath.Dir(tempIndexPath), 0755); err != nil {
		return fmt.Errorf("failed to create temp index directory: %w", err)
	}

	log.Printf("Creating new index with %d chunks (avg %d tokens)...", len(chunks), averageTokens(chunks))
	mapping := bleve.NewIndexMapping()
	newIndex, err := bleve.New(tempIndexPath, mapping)
	if err != nil {
		return fmt.Errorf("failed to create temp index: %w", err)
	}

	batch := newIndex.NewBatch()
	for i, chunk := range chunks {
		if err := batch.Index(chunk.ID, chunk); err != nil {
			newIndex.Close()
			os.RemoveAll(tempIndexPath)
			return fmt.Errorf("failed to add chunk %s to batch: %w", chunk.ID, err)
		}

		if i%100 == 0 && i > 0 {
			if err := newIndex.Batch(batch); err != nil {
				newIndex.Close()
				os.RemoveAll(tempIndexPath)
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = newIndex.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := newIndex.Batch(batch); err != nil {
			newIndex.Close()
			os.RemoveAll(tempIndexPath)
			return fmt.Errorf("failed to index final batch: %w", err)
		}
	}

	if err := newIndex.Close(); err != nil {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to close temp index: %w", err)
	}

	// Atomic swap on the filesystem.
	if err := os.RemoveAll(indexPath); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.Rename(tempIndexPath, indexPath); err != nil {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to rename temp index: %w", err)
	}

	finalIndex, err := bleve.Open(indexPath)
	if err != nil {
		return fmt.Errorf("failed to open new index: %w", err)
	}

	wrapped := NewBleveIndexWrapper(finalIndex)

	// Atomic swap of the in-memory pointer; old index closes in the
	// background once searches drain.
	oldIndexPtr := indexMgr.current.Swap(&wrapped)

	go func(oldPtr *Index) {
		if oldPtr == nil {
			return
		}

		indexMgr.wg.Wait()

		old := *oldPtr
		if err := old.Close(); err != nil {
			log.Printf("Warning: Error closing old index: %v", err)
		}
	}(oldIndexPtr)

	if err := writeIndexVersion(); err != nil {
		log.Printf("Warning: Failed to write index version: %v", err)
	}

	return nil
}

// refreshDocsIndex downloads the documentation and rebuilds both indexes.
func refreshDocsIndex(ctx context.Context, force bool) error {
	if !force && !needsRefresh() {
		return nil
	}

	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()

	// Double-checked: another goroutine may have refreshed while we waited.
	if !force && !needsRefresh() {
		return nil
	}

	log.Printf("Starting documentation refresh (force=%v)...", force)

	// Inter-process lock is released by CloseDocSearch on shutdown.
	if err := acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire lock for refresh: %w", err)
	}

	idx, err := downloadDocumentation(ctx)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	indexMgr.querier.Store(sphinx.NewQuerier(idx))

	chunks, err := indexing.BuildChunks(idx, os.DirFS(filepath.Join(dataDir, pagesDir)), docsBaseURL)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	if err := indexChunks(chunks); err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	log.Printf("Documentation refresh completed (%d chunks)", len(chunks))
	return nil
}

// SearchDocs runs a full-text search over the pipeline documentation.
func SearchDocs(ctx context.Context, req *mcp.CallToolRequest, input SearchDocsInput) (*mcp.CallToolResult, SearchDocsOutput, error) {
	// Count in-flight searches before loading the pointer, so a concurrent
	// swap waits for us.
	indexMgr.wg.Add(1)
	defer indexMgr.wg.Done()

	indexPtr := indexMgr.current.Load()

	if indexPtr == nil {
		log.Printf("Doc index not initialized, initializing now...")
		if err := InitializeDocSearch(); err != nil {
			return nil, SearchDocsOutput{}, fmt.Errorf("failed to initialize documentation index: %w", err)
		}
		indexPtr = indexMgr.current.Load()
		if indexPtr == nil {
			return nil, SearchDocsOutput{}, fmt.Errorf("index still nil after initialization")
		}
	}

	index := *indexPtr

	maxResults := input.MaxResults
	if maxResults <= 0 || maxResults > 20 {
		maxResults = 10
	}

	query := bleve.NewMatchQuery(input.Query)
	search := bleve.NewSearchRequest(query)
	search.Size = maxResults
	search.Fields = []string{"*"}

	searchResults, err := index.Search(search)
	if err != nil {
		return nil, SearchDocsOutput{}, fmt.Errorf("search failed: %w", err)
	}

	results := make([]SearchResult, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		chunk := indexing.DocChunk{
			ID: hit.ID,
		}

		if docName, ok := hit.Fields["docname"].(string); ok {
			chunk.DocName = docName
		}
		if page, ok := hit.Fields["page"].(string); ok {
			chunk.Page = page
		}
		if section, ok := hit.Fields["section"].(string); ok {
			chunk.Section = section
		}
		if content, ok := hit.Fields["content"].(string); ok {
			chunk.Content = content
		}
		if url, ok := hit.Fields["url"].(string); ok {
			chunk.URL = url
		}
		if breadcrumb, ok := hit.Fields["breadcrumb"].(string); ok {
			chunk.Breadcrumb = breadcrumb
		}
		if doc, ok := hit.Fields["doc"].(float64); ok {
			chunk.Doc = int(doc)
		}
		if keywords, ok := hit.Fields["keywords"].([]interface{}); ok {
			chunk.Keywords = make([]string, 0, len(keywords))
			for _, kw := range keywords {
				if kwStr, ok := kw.(string); ok {
					chunk.Keywords = append(chunk.Keywords, kwStr)
				}
			}
		}
		if tokenCount, ok := hit.Fields["token_count"].(float64); ok {
			chunk.TokenCount = int(tokenCount)
		}

		results = append(results, SearchResult{
			Chunk: chunk,
			Score: hit.Score,
		})
	}

	output := SearchDocsOutput{
		Results:   results,
		Query:     input.Query,
		TotalHits: int(searchResults.Total),
		SourceURL: docsBaseURL,
	}

	return nil, output, nil
}

// LookupTerm answers an exact-token query the way the Sphinx search widget
// does: pages containing every term, title matches first, plus matching
// section headings.
func LookupTerm(ctx context.Context, req *mcp.CallToolRequest, input LookupTermInput) (*mcp.CallToolResult, LookupTermOutput, error) {
	querier := indexMgr.querier.Load()
	if querier == nil {
		if err := InitializeDocSearch(); err != nil {
			return nil, LookupTermOutput{}, fmt.Errorf("failed to initialize documentation index: %w", err)
		}
		querier = indexMgr.querier.Load()
		if querier == nil {
			return nil, LookupTermOutput{}, fmt.Errorf("search index still unavailable after initialization")
		}
	}

	hits := querier.Lookup(input.Query)
	sections := querier.Sections(input.Query)
	if hits == nil {
		hits = []sphinx.Hit{}
	}
	if sections == nil {
		sections = []sphinx.Section{}
	}

	return nil, LookupTermOutput{Hits: hits, Sections: sections, Query: input.Query}, nil
}

// RefreshDocsIndex forces a refresh of the documentation cache and indexes.
func RefreshDocsIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshDocsIndexInput) (*mcp.CallToolResult, RefreshDocsIndexOutput, error) {
	output := RefreshDocsIndexOutput{
		Updated: false,
	}

	if !input.Force && !needsRefresh() {
		metaPath := filepath.Join(dataDir, cacheMetaFile)
		if info, err := os.Stat(metaPath); err == nil {
			output.LastUpdate = info.ModTime()
			output.Message = fmt.Sprintf("Cache is fresh (last updated: %s)", info.ModTime().Format(time.RFC3339))
			return nil, output, nil
		}
	}

	if err := refreshDocsIndex(ctx, input.Force); err != nil {
		return nil, output, fmt.Errorf("refresh failed: %w", err)
	}

	if indexPtr := indexMgr.current.Load(); indexPtr != nil {
		count, _ := (*indexPtr).DocCount()
		output.ChunksIndexed = int(count)
	}

	output.Updated = true
	output.LastUpdate = time.Now()
	output.Message = fmt.Sprintf("Documentation refreshed successfully, %d chunks indexed", output.ChunksIndexed)

	return nil, output, nil
}

// RegisterDocSearchTools registers the documentation search tools.
func RegisterDocSearchTools(server *mcp.Server) error {
	if err := InitializeDocSearch(); err != nil {
		log.Printf("Warning: Documentation search initialization failed: %v", err)
		log.Printf("Documentation search will attempt to initialize on first use")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_docs",
			Description: "Full-text search through the IDEAL-GENOM pipeline documentation. Returns the most relevant chunks with page, section, and URL context.",
		},
		SearchDocs,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "lookup_term",
			Description: "Exact-term lookup against the Sphinx search index, the same AND-semantics the documentation site's search widget uses. Also returns section headings matching the query.",
		},
		LookupTerm,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_docs_index",
			Description: "Re-download the published documentation and rebuild the local search indexes (auto-runs if the cache is older than 7 days)",
		},
		RefreshDocsIndex,
	)

	return nil
}

// CloseDocSearch closes the search index and releases the inter-process lock.
func CloseDocSearch() error {
	var closeErr error

	if indexMgr != nil {
		// Swap to nil first so no new searches start.
		indexPtr := indexMgr.current.Swap(nil)

		if indexPtr != nil {
			indexMgr.wg.Wait()

			index := *indexPtr
			closeErr = index.Close()
			if closeErr != nil {
				log.Printf("Error closing doc index: %v", closeErr)
			}
		}
	}

	if err := releaseLock(); err != nil {
		log.Printf("Error releasing lock: %v", err)
		if closeErr == nil {
			closeErr = err
		}
	}

	return closeErr
}
