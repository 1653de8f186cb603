package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"ytproxy/internal/app/model"
	"ytproxy/pkg/httputil"
)

const (
	defaultUploadURL        = "https://www.googleapis.com/upload/youtube/v3/videos"
	defaultThumbnailURL     = "https://www.googleapis.com/upload/youtube/v3/thumbnails/set"
	defaultUploadTimeout    = 30 * time.Minute
	defaultThumbnailTimeout = 2 * time.Minute
)

type Config struct {
	HTTPClient       *http.Client
	UploadURL        string
	ThumbnailURL     string
	UploadTimeout    time.Duration
	ThumbnailTimeout time.Duration
}

// Client publishes media to YouTube. It never touches local state beyond
// reading the files it is given.
type Client struct {
	uploads      *httputil.DeadlineClient
	thumbnails   *httputil.DeadlineClient
	uploadURL    string
	thumbnailURL string
}

type VideoResult struct {
	ID  string
	URL string
}

type ThumbnailResult struct {
	URL string
}

type uploadResponse struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

type thumbnailResponse struct {
	Items []struct {
		Default struct {
			URL string `json:"url"`
		} `json:"default"`
	} `json:"items"`
}

type videoSnippet struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CategoryID  string `json:"categoryId,omitempty"`
}

type videoStatus struct {
	PrivacyStatus           string `json:"privacyStatus"`
	SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
}

type videoMetadata struct {
	Snippet videoSnippet `json:"snippet"`
	Status  videoStatus  `json:"status"`
}

type part struct {
	name        string
	filename    string
	contentType string
	body        io.Reader
}

func NewClient(cfg Config) *Client {
	if cfg.UploadURL == "" {
		cfg.UploadURL = defaultUploadURL
	}
	if cfg.ThumbnailURL == "" {
		cfg.ThumbnailURL = defaultThumbnailURL
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = defaultUploadTimeout
	}
	if cfg.ThumbnailTimeout <= 0 {
		cfg.ThumbnailTimeout = defaultThumbnailTimeout
	}

	return &Client{
		uploads:      httputil.NewDeadlineClient(cfg.HTTPClient, cfg.UploadTimeout),
		thumbnails:   httputil.NewDeadlineClient(cfg.HTTPClient, cfg.ThumbnailTimeout),
		uploadURL:    cfg.UploadURL,
		thumbnailURL: cfg.ThumbnailURL,
	}
}

func VideoURL(id string) string {
	return fmt.Sprintf("https://youtube.com/watch?v=%s", id)
}

func (c *Client) UploadVideo(ctx context.Context, token *oauth2.Token, meta model.Metadata, videoPath string) (*VideoResult, error) {
	const op = "video upload"

	metadataJSON, err := json.Marshal(videoMetadata{
		Snippet: videoSnippet{
			Title:       meta.Title,
			Description: meta.Description,
			CategoryID:  meta.CategoryID,
		},
		Status: videoStatus{
			PrivacyStatus:           meta.PrivacyStatus,
			SelfDeclaredMadeForKids: meta.MadeForKids(),
		},
	})
	if err != nil {
		return nil, classify(op, fmt.Errorf("failed to marshal metadata: %w", err))
	}

	videoFile, err := os.Open(videoPath)
	if err != nil {
		return nil, classify(op, fmt.Errorf("failed to open video file: %w", err))
	}
	defer func() { _ = videoFile.Close() }()

	target := c.uploadURL + "?uploadType=multipart&part=snippet,status"
	resp, err := c.post(ctx, c.uploads, target, token, []part{
		{name: "resource", contentType: "application/json; charset=UTF-8", body: bytes.NewReader(metadataJSON)},
		{name: "media", filename: filepath.Base(videoPath), contentType: model.KindVideo.ContentType(), body: videoFile},
	})
	if err != nil {
		return nil, classify(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var uploadResp uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return nil, classify(op, fmt.Errorf("failed to parse response: %w", err))
	}
	if uploadResp.ID == "" {
		return nil, classify(op, errors.New("response has no video id"))
	}

	return &VideoResult{
		ID:  uploadResp.ID,
		URL: VideoURL(uploadResp.ID),
	}, nil
}

func (c *Client) SetThumbnail(ctx context.Context, token *oauth2.Token, videoID, thumbnailPath string) (*ThumbnailResult, error) {
	const op = "thumbnail upload"

	thumbFile, err := os.Open(thumbnailPath)
	if err != nil {
		return nil, classify(op, fmt.Errorf("failed to open thumbnail file: %w", err))
	}
	defer func() { _ = thumbFile.Close() }()

	target := c.thumbnailURL + "?videoId=" + url.QueryEscape(videoID)
	resp, err := c.post(ctx, c.thumbnails, target, token, []part{
		{name: "media", filename: filepath.Base(thumbnailPath), contentType: model.KindImage.ContentType(), body: thumbFile},
	})
	if err != nil {
		return nil, classify(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var thumbResp thumbnailResponse
	if err := json.NewDecoder(resp.Body).Decode(&thumbResp); err != nil {
		return nil, classify(op, fmt.Errorf("failed to parse response: %w", err))
	}
	if len(thumbResp.Items) == 0 || thumbResp.Items[0].Default.URL == "" {
		return nil, classify(op, errors.New("response has no thumbnail url"))
	}

	return &ThumbnailResult{URL: thumbResp.Items[0].Default.URL}, nil
}

// post streams a multipart/related body so media never sits in memory. A
// non-2xx response is returned as a *googleapi.Error.
func (c *Client) post(ctx context.Context, client httputil.Doer, target string, token *oauth2.Token, parts []part) (*http.Response, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())
	token.SetAuthHeader(req)

	go func() {
		pw.CloseWithError(writeParts(writer, parts))
	}()

	resp, err := client.Do(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		return nil, err
	}

	if err := googleapi.CheckResponse(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func writeParts(writer *multipart.Writer, parts []part) error {
	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		disposition := fmt.Sprintf(`form-data; name="%s"`, p.name)
		if p.filename != "" {
			disposition += fmt.Sprintf(`; filename="%s"`, p.filename)
		}
		header.Set("Content-Disposition", disposition)
		header.Set("Content-Type", p.contentType)

		w, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("failed to create %s part: %w", p.name, err)
		}
		if _, err := io.Copy(w, p.body); err != nil {
			return fmt.Errorf("failed to write %s part: %w", p.name, err)
		}
	}
	return writer.Close()
}
