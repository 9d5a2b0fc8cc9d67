package offline

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/textproto"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"fasobus/internal/utils"
)

// TicketCache is the slice of Store the gateway needs. Tests substitute an
// in-memory implementation.
type TicketCache interface {
	SaveBlob(ticketID string, blob []byte) error
	Blob(ticketID string) ([]byte, error)
	AllMeta() ([]map[string]any, error)
	ReplaceMeta(list []map[string]any) error
	SetLastSync(t time.Time) error
}

var ticketPDFPath = regexp.MustCompile(`^/api/tickets/([^/]+)/pdf$`)

const ticketListPath = "/api/users/me/tickets"

// Gateway fronts the ticket API and keeps tickets reachable offline.
// Ticket PDFs are served cache-first; the ticket list is served
// network-first with the cache rewritten on every successful fetch.
// Everything else passes through untouched.
type Gateway struct {
	upstream *url.URL
	client   *http.Client
	cache    TicketCache
	// now is overridable for tests.
	now func() time.Time
}

func NewGateway(upstream string, cache TicketCache) (*Gateway, error) {
	u, err := url.Parse(upstream)
	if err != nil {
		return nil, err
	}
	return &Gateway{
		upstream: u,
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache: cache,
		now:   time.Now,
	}, nil
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if m := ticketPDFPath.FindStringSubmatch(r.URL.Path); m != nil {
			g.servePDF(w, r, m[1])
			return
		}
		if r.URL.Path == ticketListPath {
			g.serveList(w, r)
			return
		}
	}
	g.passThrough(w, r)
}

// servePDF answers from the cache when it can; a miss goes upstream and the
// response is written through so the next request works offline.
func (g *Gateway) servePDF(w http.ResponseWriter, r *http.Request, ticketID string) {
	if blob, err := g.cache.Blob(ticketID); err == nil {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("X-Ticket-Source", "cache")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(blob)
		return
	}

	resp, err := g.forward(r)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "ticket service unreachable")
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "ticket service read failed")
		return
	}
	if resp.StatusCode == http.StatusOK {
		// Cache errors must not break the download in hand.
		if err := g.cache.SaveBlob(ticketID, body); err != nil {
			utils.LogEvent("", "offline", "cache_pdf", err.Error())
		}
	}
	relay(w, resp, body)
}

// serveList prefers the network; on success the metadata cache is rebuilt
// from the fresh list. When upstream is unreachable the cached list is
// returned with the same 200 shape so callers need no offline special case.
func (g *Gateway) serveList(w http.ResponseWriter, r *http.Request) {
	resp, err := g.forward(r)
	if err != nil {
		g.serveListFromCache(w)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.serveListFromCache(w)
		return
	}
	if resp.StatusCode == http.StatusOK {
		var list []map[string]any
		if err := json.Unmarshal(body, &list); err == nil {
			if err := g.cache.ReplaceMeta(list); err != nil {
				utils.LogEvent("", "offline", "cache_list", err.Error())
			} else if err := g.cache.SetLastSync(g.now()); err != nil {
				utils.LogEvent("", "offline", "cache_list", err.Error())
			}
		}
	}
	relay(w, resp, body)
}

func (g *Gateway) serveListFromCache(w http.ResponseWriter) {
	list, err := g.cache.AllMeta()
	if err != nil || list == nil {
		list = []map[string]any{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Ticket-Source", "cache")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(list)
}

func (g *Gateway) passThrough(w http.ResponseWriter, r *http.Request) {
	resp, err := g.forward(r)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "upstream unreachable")
		return
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "upstream read failed")
		return
	}
	relay(w, resp, body)
}

func (g *Gateway) forward(r *http.Request) (*http.Response, error) {
	target := g.upstream.ResolveReference(&url.URL{
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	})
	var body io.Reader
	if r.Body != nil {
		body = r.Body
	}
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), body)
	if err != nil {
		return nil, err
	}
	copyEndToEnd(req.Header, r.Header)
	return g.client.Do(req)
}

func relay(w http.ResponseWriter, resp *http.Response, body []byte) {
	copyEndToEnd(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, bytes.NewReader(body))
}

// Hop-by-hop headers describe one connection and must not cross the
// gateway (RFC 7230 section 6.1).
var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// copyEndToEnd copies src into dst minus the hop-by-hop set and anything
// the Connection header names.
func copyEndToEnd(dst, src http.Header) {
	drop := map[string]bool{}
	for _, k := range hopHeaders {
		drop[k] = true
	}
	for _, v := range src.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				drop[textproto.CanonicalMIMEHeaderKey(name)] = true
			}
		}
	}
	for k, vs := range src {
		if drop[k] {
			continue
		}
		for _, v := range vs {
			dst.Add(k, v)
		}
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
