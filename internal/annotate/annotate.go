// Package annotate attaches gene context to GWAS top hits by querying the
// Ensembl REST API for genes overlapping each variant position.
package annotate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/ideal-genom/gwaskit/internal/gwas"
)

// DefaultBaseURL is the public Ensembl REST endpoint (GRCh38).
const DefaultBaseURL = "https://rest.ensembl.org"

// Ensembl asks anonymous clients to stay under 15 requests per second; one
// request every 1.5s keeps well clear of that and matches how long the
// pipeline historically paused between lookups.
var defaultLimit = rate.Every(1500 * time.Millisecond)

// Client queries Ensembl with a shared rate limiter, so concurrent callers
// cannot exceed the API's anonymous quota.
type Client struct {
	baseURL string
	httpc   *http.Client
	limiter *rate.Limiter
}

// NewClient returns a Client against the given base URL. An empty baseURL
// selects the public Ensembl endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(defaultLimit, 1),
	}
}

// gene is the slice of the Ensembl overlap response we care about.
type gene struct {
	ExternalName string `json:"external_name"`
	ID           string `json:"id"`
	Biotype      string `json:"biotype"`
}

// GeneAt returns the name of a gene overlapping the given position, or "NA"
// when the position falls outside any annotated gene. Protein-coding genes
// win over other biotypes when several overlap.
func (c *Client) GeneAt(ctx context.Context, chr, pos int) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/overlap/region/human/%d:%d-%d?%s",
		c.baseURL, chr, pos, pos,
		url.Values{"feature": {"gene"}, "content-type": {"application/json"}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("ensembl request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ensembl returned %s: %s", resp.Status, body)
	}

	var genes []gene
	if err := json.NewDecoder(resp.Body).Decode(&genes); err != nil {
		return "", fmt.Errorf("failed to decode ensembl response: %w", err)
	}

	return pickGene(genes), nil
}

func pickGene(genes []gene) string {
	name := "NA"
	for _, g := range genes {
		if g.ExternalName == "" {
			continue
		}
		if g.Biotype == "protein_coding" {
			return g.ExternalName
		}
		if name == "NA" {
			name = g.ExternalName
		}
	}
	return name
}

// TopHits annotates each COJO hit with its gene context. Lookups that fail
// record "NA" rather than aborting the batch; the first error is returned
// alongside the results once every hit has been attempted. A cancelled
// context aborts immediately.
func (c *Client) TopHits(ctx context.Context, hits []gwas.COJOHit) (map[string]string, error) {
	genes := make(map[string]string, len(hits))
	var firstErr error
	for _, hit := range hits {
		name, err := c.GeneAt(ctx, hit.Chr, hit.Pos)
		if err != nil {
			if ctx.Err() != nil {
				return genes, ctx.Err()
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("annotating %s: %w", hit.SNP, err)
			}
			name = "NA"
		}
		genes[hit.SNP] = name
	}
	return genes, firstErr
}

// WriteAnnotated writes the SNP-to-gene table, tab separated with a header,
// preserving the hit order of the scan.
func WriteAnnotated(hits []gwas.COJOHit, genes map[string]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create annotation file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "SNP\tGENE")
	for _, hit := range hits {
		name, ok := genes[hit.SNP]
		if !ok {
			name = "NA"
		}
		fmt.Fprintf(w, "%s\t%s\n", hit.SNP, name)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write annotation file: %w", err)
	}
	return nil
}
