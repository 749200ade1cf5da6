package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitflow/packages/core/request"
	"github.com/abdul-hamid-achik/hitflow/packages/jsonval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(url string) *request.Descriptor {
	d := request.NewDescriptor()
	d.URL = url
	return d
}

func TestClient_ExecuteGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "hello"}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Execute(context.Background(), get(server.URL+"/test"), 0)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header("Content-Type"))
	assert.Contains(t, resp.BodyString(), "hello")
	assert.Positive(t, resp.Elapsed)

	msg, ok := jsonval.Resolve(resp.JSON, "message")
	require.True(t, ok)
	assert.Equal(t, jsonval.String("hello"), msg)
}

func TestClient_ExecutePostWithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	desc := get(server.URL)
	desc.Method = "POST"
	desc.SetHeader("Content-Type", "application/json").SetBody(`{"name": "test"}`)

	resp, err := NewClient().Execute(context.Background(), desc, time.Second)

	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Contains(t, resp.BodyString(), "123")
}

func TestClient_JSONWithoutContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`[1, 2]`))
	}))
	defer server.Close()

	resp, err := NewClient().Execute(context.Background(), get(server.URL), 0)
	require.NoError(t, err)
	assert.Equal(t, "array", jsonval.TypeName(resp.JSON))
}

func TestClient_NonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	resp, err := NewClient().Execute(context.Background(), get(server.URL), 0)
	require.NoError(t, err)
	assert.Nil(t, resp.JSON)
}

func TestClient_MaxResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"padding": "0123456789"}`))
	}))
	defer server.Close()

	resp, err := NewClient(WithMaxResponseBody(8)).Execute(context.Background(), get(server.URL), 0)
	require.NoError(t, err)
	assert.Equal(t, `{"paddin`, resp.BodyString())
	assert.Nil(t, resp.JSON)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithTimeout(50 * time.Millisecond))
	_, err := client.Execute(context.Background(), get(server.URL), 0)

	var timeout *request.TimeoutError
	require.True(t, errors.As(err, &timeout), "got %v", err)
	assert.Equal(t, 50*time.Millisecond, timeout.Timeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_PerCallTimeoutWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	_, err := NewClient().Execute(context.Background(), get(server.URL), 30*time.Millisecond)

	var timeout *request.TimeoutError
	assert.True(t, errors.As(err, &timeout))
}

func TestClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient().Execute(context.Background(), get(url), time.Second)

	var transport *request.TransportError
	require.True(t, errors.As(err, &transport))
	assert.Equal(t, url, transport.URL)
}

func TestClient_InvalidURLIsTransportError(t *testing.T) {
	_, err := NewClient().Execute(context.Background(), get("ftp://example.com"), 0)

	var transport *request.TransportError
	require.True(t, errors.As(err, &transport))
	assert.Contains(t, err.Error(), "unsupported URL scheme")
}

func TestClient_PerRequestTLSVerify(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient()

	_, err := client.Execute(context.Background(), get(server.URL), time.Second)
	assert.Error(t, err, "self-signed certificate must be rejected")

	insecure := get(server.URL)
	insecure.TLSVerify = false
	resp, err := client.Execute(context.Background(), insecure, time.Second)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestClient_WithValidateSSLDisabled(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	resp, err := NewClient(WithValidateSSL(false)).Execute(context.Background(), get(server.URL), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestClient_WithDefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "from-request", r.Header.Get("X-Source"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(
		WithDefaultHeader("Authorization", "test-token"),
		WithDefaultHeaders(map[string]string{"X-Source": "default"}),
	)
	desc := get(server.URL)
	desc.SetHeader("X-Source", "from-request")

	resp, err := client.Execute(context.Background(), desc, 0)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestClient_FollowRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`final`))
			return
		}
		redirectCount++
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithFollowRedirects(true))
	resp, err := client.Execute(context.Background(), get(server.URL+"/redirect"), 0)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "final", resp.BodyString())
	assert.Equal(t, 1, redirectCount)
}

func TestClient_NoFollowRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithFollowRedirects(false))
	resp, err := client.Execute(context.Background(), get(server.URL+"/redirect"), 0)

	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
}

func TestClient_MaxRedirects(t *testing.T) {
	redirectCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		redirectCount++
		http.Redirect(w, r, "/redirect", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient(WithMaxRedirects(3))
	resp, err := client.Execute(context.Background(), get(server.URL+"/redirect"), 0)

	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
	assert.LessOrEqual(t, redirectCount, 4)
}

func TestClient_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client := NewClient(WithRateLimit(10))
	start := time.Now()
	for i := 0; i < 12; i++ {
		_, err := client.Execute(context.Background(), get(server.URL), time.Second)
		require.NoError(t, err)
	}
	// burst of 10, then two more at 100ms intervals
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestClient_RateLimitCancelled(t *testing.T) {
	client := NewClient(WithRateLimit(0.001))
	ctx, cancel := context.WithCancel(context.Background())

	// first call consumes the single token
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()
	_, err := client.Execute(ctx, get(server.URL), time.Second)
	require.NoError(t, err)

	cancel()
	_, err = client.Execute(ctx, get(server.URL), time.Second)
	var transport *request.TransportError
	assert.True(t, errors.As(err, &transport))
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid http URL",
			url:     "http://example.com/path",
			wantErr: false,
		},
		{
			name:    "valid https URL",
			url:     "https://example.com/path",
			wantErr: false,
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			url:     "http:///path",
			wantErr: true,
			errMsg:  "URL must have a host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
