package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"chat-relay/internal/config"
	"chat-relay/internal/logger"
	"chat-relay/internal/server"
	"chat-relay/internal/types"
)

func completionBody(content string) string {
	return fmt.Sprintf(`{"choices":[{"index":0,"message":{"role":"assistant","content":%q}}]}`, content)
}

func testConfig(upstreamURL string) config.Config {
	return config.Config{
		Port:           "0",
		UpstreamURL:    upstreamURL + "/v1/chat/completions",
		Model:          "gemma3:12b",
		RequestTimeout: 5 * time.Second,
		AllowedOrigin:  "*",
	}
}

func newServer(cfg config.Config) http.Handler {
	s, err := server.NewServer(cfg, logger.Nop())
	Expect(err).NotTo(HaveOccurred())
	return s.Router()
}

func ask(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

var _ = Describe("Server", func() {
	var (
		upstream *httptest.Server
		handler  http.HandlerFunc
		prompts  chan string
		h        http.Handler
	)

	BeforeEach(func() {
		prompts = make(chan string, 10)
		handler = func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, completionBody("Hello"))
		}
		upstream = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if len(req.Messages) > 0 {
				prompts <- req.Messages[0].Content
			}
			handler(w, r)
		}))
		h = newServer(testConfig(upstream.URL))
	})

	AfterEach(func() {
		upstream.Close()
	})

	Describe("GET /", func() {
		It("serves the chat page", func() {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Header().Get("Content-Type")).To(HavePrefix("text/html"))
			Expect(rr.Body.String()).To(ContainSubstring(`id="chat-container"`))
			Expect(rr.Body.String()).To(ContainSubstring("How can I help you today?"))
		})

		It("does not touch the upstream", func() {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(prompts).To(BeEmpty())
		})

		It("uses page settings from the YAML file", func() {
			path := filepath.Join(GinkgoT().TempDir(), "page.yaml")
			Expect(os.WriteFile(path, []byte("heading: Qwen on the workstation\n"), 0o600)).To(Succeed())
			cfg := testConfig(upstream.URL)
			cfg.PageConfig = path

			rr := httptest.NewRecorder()
			newServer(cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(rr.Body.String()).To(ContainSubstring("<h2>Qwen on the workstation</h2>"))
		})
	})

	Describe("POST /ask", func() {
		It("returns the model reply as plain text", func() {
			rr := ask(h, `{"prompt":"hi"}`)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Header().Get("Content-Type")).To(HavePrefix("text/plain"))
			Expect(rr.Body.String()).To(Equal("Hello"))
		})

		It("round-trips a prompt", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, completionBody("4"))
			}
			rr := ask(h, `{"prompt":"2+2?"}`)
			Expect(rr.Body.String()).To(Equal("4"))
			Expect(prompts).To(Receive(Equal("2+2?")))
		})

		DescribeTable("answers 200 text/plain for any prompt",
			func(body string, expectedPrompt string) {
				rr := ask(h, body)
				Expect(rr.Code).To(Equal(http.StatusOK))
				Expect(rr.Header().Get("Content-Type")).To(HavePrefix("text/plain"))
				Expect(prompts).To(Receive(Equal(expectedPrompt)))
			},
			Entry("empty prompt", `{"prompt":""}`, ""),
			Entry("absent prompt", `{}`, ""),
			Entry("unicode prompt", `{"prompt":"¿qué tal? 你好"}`, "¿qué tal? 你好"),
			Entry("multi-line prompt", `{"prompt":"line one\nline two"}`, "line one\nline two"),
		)

		It("returns an empty body when upstream sends no choices", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion"}`)
			}
			rr := ask(h, `{"prompt":"hi"}`)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(BeEmpty())
		})

		It("reports an upstream 500 in-band", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model crashed", http.StatusInternalServerError)
			}
			rr := ask(h, `{"prompt":"hi"}`)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(HavePrefix("Error: "))
			Expect(rr.Body.String()).To(ContainSubstring("500"))
		})

		It("reports malformed upstream JSON in-band", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "<html>proxy error</html>")
			}
			rr := ask(h, `{"prompt":"hi"}`)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(HavePrefix("Error: "))
		})

		It("reports a timeout in-band", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				<-r.Context().Done()
			}
			cfg := testConfig(upstream.URL)
			cfg.RequestTimeout = 50 * time.Millisecond

			rr := ask(newServer(cfg), `{"prompt":"hi"}`)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(HavePrefix("Error: "))
			Expect(rr.Body.String()).To(ContainSubstring("50ms"))
		})

		It("reports a refused connection in-band", func() {
			ln, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			addr := ln.Addr().String()
			Expect(ln.Close()).To(Succeed())

			rr := ask(newServer(testConfig("http://"+addr)), `{"prompt":"hi"}`)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(HavePrefix("Error: "))
		})

		It("reports an unreadable body in-band without calling upstream", func() {
			rr := ask(h, `{"prompt":`)
			Expect(rr.Code).To(Equal(http.StatusOK))
			Expect(rr.Body.String()).To(Equal("Error: invalid JSON body"))
			Expect(prompts).To(BeEmpty())
		})

		It("keeps serving after a failure", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "busy", http.StatusServiceUnavailable)
			}
			Expect(ask(h, `{"prompt":"one"}`).Body.String()).To(HavePrefix("Error: "))

			handler = func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, completionBody("recovered"))
			}
			Expect(ask(h, `{"prompt":"two"}`).Body.String()).To(Equal("recovered"))
		})

		It("rejects GET", func() {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ask", nil))
			Expect(rr.Code).To(Equal(http.StatusMethodNotAllowed))
		})
	})

	Describe("GET /health", func() {
		It("reports ok and the model", func() {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			Expect(rr.Code).To(Equal(http.StatusOK))

			var resp types.HealthResponse
			Expect(json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&resp)).To(Succeed())
			Expect(resp).To(Equal(types.HealthResponse{Status: "ok", Model: "gemma3:12b"}))
		})
	})
})

var _ = Describe("NewServer", func() {
	It("fails on an unusable upstream url", func() {
		cfg := testConfig("")
		cfg.UpstreamURL = "not a url"
		_, err := server.NewServer(cfg, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("relay")))
	})

	It("fails on a broken page settings file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "page.yaml")
		Expect(os.WriteFile(path, []byte("title: [oops\n"), 0o600)).To(Succeed())
		cfg := testConfig("http://localhost:11434")
		cfg.PageConfig = path
		_, err := server.NewServer(cfg, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("page settings")))
	})
})
