package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"transcript-cleaner-go/internal/config"
	"transcript-cleaner-go/internal/logger"
	"transcript-cleaner-go/internal/types"
)

// Provider turns a source reference into a transcript document.
type Provider interface {
	Fetch(ctx context.Context, ref string) (types.Document, error)
}

// FileProvider reads a local transcript file.
type FileProvider struct{}

func (FileProvider) Fetch(ctx context.Context, path string) (types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, err
	}
	return types.Document{Source: path, Text: string(data), Local: true}, nil
}

const mockTranscript = "so um welcome back everyone today I I'm joined by by the author of a new book\n" +
	"thanks for having me it's uh it's great to be here\n\n" +
	"so tell us how the book started"

// MockProvider returns a fixed transcript. It backs USE_MOCK_TRANSCRIBE=true.
type MockProvider struct{}

func (MockProvider) Fetch(ctx context.Context, ref string) (types.Document, error) {
	return types.Document{Source: ref, Text: mockTranscript}, nil
}

// RemoteProvider fetches transcripts for external video identifiers from the
// transcription service: publish, poll until done, then download.
type RemoteProvider struct {
	host         string
	client       *http.Client
	pollInterval time.Duration
	maxPolls     int
	log          *logger.Logger
}

func NewRemoteProvider(host string, log *logger.Logger) *RemoteProvider {
	return &RemoteProvider{
		host:         strings.TrimRight(host, "/"),
		client:       httpClient,
		pollInterval: 1500 * time.Millisecond,
		maxPolls:     40,
		log:          log.With("module", "transcription"),
	}
}

func (p *RemoteProvider) Fetch(ctx context.Context, videoID string) (types.Document, error) {
	p.log.WithField("video_id", videoID).Info("starting transcript fetch")

	mediaID, existingURL, err := p.publish(ctx, videoID)
	if err != nil {
		return types.Document{}, err
	}
	textURL := existingURL
	if textURL == "" {
		if textURL, err = p.poll(ctx, mediaID); err != nil {
			return types.Document{}, err
		}
	}

	p.log.WithField("final_url", textURL).Info("download final transcript")
	body, err := download(ctx, p.client, textURL)
	if err != nil {
		return types.Document{}, err
	}
	doc := parseTranscript(body)
	doc.Source = videoID
	return doc, nil
}

func (p *RemoteProvider) publish(ctx context.Context, videoID string) (string, string, error) {
	endpoint := p.host + "/transcribe"
	newReq := func() (*http.Request, error) {
		var b bytes.Buffer
		w := multipart.NewWriter(&b)
		w.WriteField("videoId", videoID)
		w.WriteField("sourceType", "youtube")
		if err := w.Close(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &b)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req, nil
	}

	var resp PublishResponse
	if err := doJSON(ctx, p.client, newReq, &resp); err != nil {
		return "", "", err
	}
	if resp.Code != 200 {
		return "", "", fmt.Errorf("transcribe publish error: code=%d reason=%s", resp.Code, resp.Reason)
	}
	if resp.Data.TranscriptionURL != "" && strings.ToLower(resp.Data.Status) == "success" {
		return "", resp.Data.TranscriptionURL, nil
	}
	if resp.Data.MediaId == "" {
		return "", "", errors.New("transcribe publish returned no media id")
	}
	return resp.Data.MediaId, "", nil
}

func (p *RemoteProvider) poll(ctx context.Context, mediaID string) (string, error) {
	u, err := url.Parse(p.host + "/getstatus")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("mediaId", mediaID)
	u.RawQuery = q.Encode()

	timer := time.NewTimer(p.pollInterval)
	defer timer.Stop()
	for i := 0; i < p.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
		timer.Reset(p.pollInterval)

		newReq := func() (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		}
		var s StatusResponse
		if err := doJSON(ctx, p.client, newReq, &s); err != nil {
			p.log.WithError(err).Warn("polling failed")
			continue
		}
		p.log.WithField("media_id", mediaID).WithField("status", s.Data.Status).Debug("polling transcription")

		switch s.Data.Status {
		case "Success":
			return s.Data.TranscriptionTextURL, nil
		case "Queued", "Processing":
			continue
		case "Failed":
			return "", fmt.Errorf("transcription failed: %s", s.Reason)
		}
	}
	return "", fmt.Errorf("transcription timeout")
}

// parseTranscript accepts either plain text or a JSON {"segments": [...]}
// payload, the latter yielding a pre-segmented document.
func parseTranscript(body string) types.Document {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "{") {
		var payload struct {
			Segments []string `json:"segments"`
		}
		if err := json.Unmarshal([]byte(trimmed), &payload); err == nil && payload.Segments != nil {
			return types.Document{Text: strings.Join(payload.Segments, "\n"), Segments: payload.Segments}
		}
	}
	return types.Document{Text: body}
}

// Resolver decides whether a reference is a local file or an external
// identifier and fetches it accordingly.
type Resolver struct {
	files  Provider
	remote Provider
	log    *logger.Logger

	restricted bool
	root       string
}

func NewResolver(cfg config.TranscribeConfig, log *logger.Logger) *Resolver {
	r := &Resolver{files: FileProvider{}, log: log.With("component", "resolver")}
	switch {
	case cfg.UseMock:
		r.remote = MockProvider{}
	case cfg.URL != "":
		r.remote = NewRemoteProvider(cfg.URL, log)
	}
	return r
}

// NewResolverWith builds a Resolver from explicit providers. remote may be nil.
func NewResolverWith(files, remote Provider, log *logger.Logger) *Resolver {
	return &Resolver{files: files, remote: remote, log: log.With("component", "resolver")}
}

// Restrict returns a Resolver for untrusted references. Files are read only
// from below root, and with an empty root never. Anything path-like that is
// not such a file is rejected instead of being sent to the remote provider.
func (r *Resolver) Restrict(root string) *Resolver {
	out := *r
	out.restricted = true
	out.root = root
	return &out
}

// IsFile reports whether ref names an existing regular file.
func IsFile(ref string) bool {
	fi, err := os.Stat(ref)
	return err == nil && fi.Mode().IsRegular()
}

// Resolve fetches the document for ref. Failures are SourceResolutionErrors.
func (r *Resolver) Resolve(ctx context.Context, ref string) (types.Document, error) {
	var (
		doc types.Document
		err error
	)
	switch {
	case r.restricted:
		doc, err = r.resolveRestricted(ctx, ref)
	case IsFile(ref):
		doc, err = r.files.Fetch(ctx, ref)
	case r.remote == nil:
		err = errors.New("not a file and TRANSCRIBE_URL not set")
	default:
		doc, err = r.remote.Fetch(ctx, ref)
	}
	if err != nil {
		r.log.WithError(err).WithField("source", ref).Error("source resolution failed")
		return types.Document{}, &types.SourceResolutionError{Source: ref, Err: err}
	}
	return doc, nil
}

func (r *Resolver) resolveRestricted(ctx context.Context, ref string) (types.Document, error) {
	if strings.TrimSpace(ref) == "" {
		return types.Document{}, errors.New("empty source")
	}
	if r.root != "" && filepath.IsLocal(ref) {
		doc, found, err := readUnder(r.root, ref)
		if err != nil || found {
			return doc, err
		}
	}
	if pathLike(ref) {
		return types.Document{}, errors.New("file sources outside INPUT_DIR are not accepted")
	}
	if r.remote == nil {
		return types.Document{}, errors.New("no such input file and TRANSCRIBE_URL not set")
	}
	return r.remote.Fetch(ctx, ref)
}

// readUnder reads ref below root. Symlinks may not leave root.
func readUnder(root, ref string) (types.Document, bool, error) {
	rt, err := os.OpenRoot(root)
	if err != nil {
		return types.Document{}, false, fmt.Errorf("open input dir: %w", err)
	}
	defer rt.Close()

	fi, err := rt.Stat(ref)
	if err != nil || !fi.Mode().IsRegular() {
		return types.Document{}, false, nil
	}
	f, err := rt.Open(ref)
	if err != nil {
		return types.Document{}, false, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return types.Document{}, false, err
	}
	return types.Document{Source: ref, Text: string(data), Local: true}, true, nil
}

func pathLike(ref string) bool {
	return filepath.IsAbs(ref) || strings.ContainsAny(ref, `/\`) || strings.Contains(ref, "..")
}
