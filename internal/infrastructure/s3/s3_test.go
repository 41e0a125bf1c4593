package s3

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"filevault-api/config"
)

func testConfig() config.S3 {
	return config.S3{
		Endpoint:        "localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
		BucketUploads:   "filevault",
	}
}

func TestClient_GetPublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(c *config.S3)
		want string
	}{
		{
			name: "endpoint and bucket",
			cfg:  func(c *config.S3) {},
			want: "http://localhost:9000/filevault/uploads/abc/cat.png",
		},
		{
			name: "ssl endpoint",
			cfg:  func(c *config.S3) { c.UseSSL = true },
			want: "https://localhost:9000/filevault/uploads/abc/cat.png",
		},
		{
			name: "public base url wins",
			cfg:  func(c *config.S3) { c.PublicBaseURL = "https://cdn.example.com/files/" },
			want: "https://cdn.example.com/files/uploads/abc/cat.png",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.cfg(&cfg)

			c, err := newClient(zap.NewNop(), cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.GetPublicURL("uploads/abc/cat.png"))
			assert.Equal(t, "filevault", c.GetBucket())
		})
	}
}

func TestClient_PresignedURL(t *testing.T) {
	c, err := newClient(zap.NewNop(), testConfig())
	require.NoError(t, err)

	raw, err := c.PresignedURL(context.Background(), "uploads/abc/cat.png", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Contains(t, u.Path, "uploads/abc/cat.png")
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestNewClient_InvalidEndpoint(t *testing.T) {
	cfg := testConfig()
	cfg.Endpoint = "http://localhost:9000"

	_, err := newClient(zap.NewNop(), cfg)
	require.Error(t, err)
}

func TestPublicReadPolicy(t *testing.T) {
	raw, err := publicReadPolicy("filevault", "uploads/")
	require.NoError(t, err)

	var p bucketPolicy
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "2012-10-17", p.Version)
	require.Len(t, p.Statement, 1)

	st := p.Statement[0]
	assert.Equal(t, "Allow", st.Effect)
	assert.Equal(t, map[string][]string{"AWS": {"*"}}, st.Principal)
	assert.Equal(t, []string{"s3:GetObject"}, st.Action, "read only, no listing")
	assert.Equal(t, []string{"arn:aws:s3:::filevault/uploads/*"}, st.Resource)
}

func TestNew_AppliesPublicReadPolicy(t *testing.T) {
	var (
		mu     sync.Mutex
		policy string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && r.URL.Query().Has("policy"):
			b, _ := io.ReadAll(r.Body)
			mu.Lock()
			policy = string(b)
			mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Endpoint = strings.TrimPrefix(srv.URL, "http://")

	c, err := New(context.Background(), zap.NewNop(), cfg)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	want, err := publicReadPolicy("filevault", publicPrefix)
	require.NoError(t, err)
	assert.JSONEq(t, want, policy)
	assert.True(t, strings.HasPrefix(c.GetPublicURL("uploads/abc/cat.png"), srv.URL+"/filevault/"+publicPrefix))
}
