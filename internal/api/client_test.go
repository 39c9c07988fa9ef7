package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"vidx/internal/models"
	"vidx/internal/shared"
	tu "vidx/internal/testing"
)

func TestClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			c := NewClient("http://example.com", customClient, nil)

			if c.baseURL != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", c.baseURL)
			}
			if c.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			c := NewClient("", nil, nil)

			if c.baseURL != "http://localhost:8000" {
				t.Errorf("expected default baseURL 'http://localhost:8000', got %s", c.baseURL)
			}
			if c.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("Successful", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST method, got %s", r.Method)
				}
				if r.URL.Path != "/api/auth/login" {
					t.Errorf("expected path '/api/auth/login', got %s", r.URL.Path)
				}

				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["email"] != "test@example.com" || body["password"] != "password123" {
					t.Errorf("unexpected credentials: %v", body)
				}

				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]any{
					"token": "tok-1",
					"user":  map[string]any{"id": "u1", "email": "test@example.com", "name": "Test", "isEmailVerified": true},
				})
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, nil)
			resp, err := c.Login(context.Background(), "test@example.com", "password123")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.Token != "tok-1" {
				t.Errorf("expected token 'tok-1', got %s", resp.Token)
			}
			if resp.User.Email != "test@example.com" || !resp.User.EmailVerified {
				t.Errorf("unexpected user: %+v", resp.User)
			}
		})

		t.Run("Invalid Credentials", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error": "invalid email or password"}`))
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, nil)
			_, err := c.Login(context.Background(), "test@example.com", "wrong")

			if !errors.Is(err, shared.ErrAuthRejected) {
				t.Errorf("expected ErrAuthRejected, got %v", err)
			}

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatal("expected a StatusError")
			}
			if se.Message != "invalid email or password" {
				t.Errorf("expected backend message to carry through, got %q", se.Message)
			}
		})
	})

	t.Run("Bearer Token", func(t *testing.T) {
		t.Run("Attached When Provider Has One", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer tok-abc" {
					t.Errorf("expected bearer header, got %q", got)
				}
				json.NewEncoder(w).Encode(models.User{ID: "u1"})
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, tu.StaticToken("tok-abc"))
			if _, err := c.Me(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("Omitted When Provider Is Empty", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "" {
					t.Errorf("expected no Authorization header, got %q", got)
				}
				json.NewEncoder(w).Encode([]models.Job{})
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, tu.StaticToken(""))
			if _, err := c.ActiveJobs(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("Error Taxonomy", func(t *testing.T) {
		cases := []struct {
			name     string
			status   int
			headers  map[string]string
			sentinel error
		}{
			{"Unauthorized", http.StatusUnauthorized, nil, shared.ErrAuthRejected},
			{"Not Found", http.StatusNotFound, nil, shared.ErrNotFound},
			{"Rate Limited", http.StatusTooManyRequests, map[string]string{"Retry-After": "30"}, shared.ErrRateLimited},
			{"Server Error", http.StatusInternalServerError, nil, shared.ErrServer},
			{"Bad Request", http.StatusBadRequest, nil, shared.ErrAPIRequest},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					for k, v := range tc.headers {
						w.Header().Set(k, v)
					}
					w.WriteHeader(tc.status)
				}))
				defer server.Close()

				c := NewClient(server.URL, nil, nil)
				_, err := c.Job(context.Background(), "j1")

				if !errors.Is(err, tc.sentinel) {
					t.Errorf("expected %v, got %v", tc.sentinel, err)
				}
			})
		}

		t.Run("Retry-After Cooldown", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, nil)
			err := c.ResendVerification(context.Background())

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatal("expected a StatusError")
			}
			if se.RetryAfter != 60*time.Second {
				t.Errorf("expected 60s cooldown, got %v", se.RetryAfter)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused")),
			}

			c := NewClient("http://example.com", client, nil)
			_, err := c.ActiveJobs(context.Background())

			if !errors.Is(err, shared.ErrNetwork) {
				t.Errorf("expected ErrNetwork, got %v", err)
			}
		})
	})

	t.Run("UploadVideo", func(t *testing.T) {
		t.Run("Rejects Oversized File Before Network", func(t *testing.T) {
			path := tu.MustWriteTemp(t, "big.mp4", "stub")
			if err := os.Truncate(path, MaxUploadSize+1); err != nil {
				t.Fatalf("failed to grow file: %v", err)
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request should be issued for an oversized file")
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, nil)
			_, err := c.UploadVideo(context.Background(), path)

			if !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})

		t.Run("Honors Configured Upload Limit", func(t *testing.T) {
			path := tu.MustWriteTemp(t, "clip.mp4", strings.Repeat("x", 2048))

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("no request should be issued over the configured limit")
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, nil)
			c.SetUploadLimit(1024)
			_, err := c.UploadVideo(context.Background(), path)

			if !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})

		t.Run("Successful Multipart Upload", func(t *testing.T) {
			path := tu.MustWriteTemp(t, "clip.mp4", "fake video bytes")

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/videos/upload" {
					t.Errorf("expected upload path, got %s", r.URL.Path)
				}
				if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
					t.Errorf("expected multipart content type, got %s", r.Header.Get("Content-Type"))
				}

				f, hdr, err := r.FormFile("video")
				if err != nil {
					t.Fatalf("expected 'video' form file: %v", err)
				}
				defer f.Close()
				if hdr.Filename != "clip.mp4" {
					t.Errorf("expected filename 'clip.mp4', got %s", hdr.Filename)
				}

				json.NewEncoder(w).Encode(map[string]string{"job_id": "job-7"})
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, nil)
			id, err := c.UploadVideo(context.Background(), path)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if id != "job-7" {
				t.Errorf("expected job id 'job-7', got %s", id)
			}
		})

		t.Run("Missing File", func(t *testing.T) {
			c := NewClient("http://example.com", nil, nil)
			_, err := c.UploadVideo(context.Background(), "/does/not/exist.mp4")

			if !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	})

	t.Run("ProcessVideo", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if body["video_path"] != "/tmp/clip.mp4" {
				t.Errorf("expected video_path in body, got %v", body)
			}
			if body["style"] != "cinematic" {
				t.Errorf("expected params flattened into body, got %v", body)
			}
			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-8"})
		}))
		defer server.Close()

		c := NewClient(server.URL, nil, nil)
		id, err := c.ProcessVideo(context.Background(), "/tmp/clip.mp4", models.ProcessingParams{Style: "cinematic", Strength: 0.8})

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if id != "job-8" {
			t.Errorf("expected job id 'job-8', got %s", id)
		}
	})

	t.Run("PrioritizeJob", func(t *testing.T) {
		t.Run("Rejects Unknown Direction", func(t *testing.T) {
			c := NewClient("http://example.com", nil, nil)
			err := c.PrioritizeJob(context.Background(), "j1", "sideways")

			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})

		t.Run("Posts Direction", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/jobs/j1/priority" {
					t.Errorf("expected priority path, got %s", r.URL.Path)
				}
				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["direction"] != "up" {
					t.Errorf("expected direction 'up', got %v", body)
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			c := NewClient(server.URL, nil, nil)
			if err := c.PrioritizeJob(context.Background(), "j1", "up"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("With Canceled Context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewClient(server.URL, nil, nil)
		if _, err := c.ActiveJobs(ctx); err == nil {
			t.Error("expected error for canceled context")
		}
	})
}
