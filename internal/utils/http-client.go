package utils

import (
	"net/http"
	"net/url"
	"time"
)

type HTTPClientConfig struct {
	Timeout       time.Duration
	KATimeout     time.Duration
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
	UserAgent     string
	Headers       map[string]string
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
	SetHeader(key, value string)
}

type GrabHTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

func NewGrabHTTPClient(cfg HTTPClientConfig) *GrabHTTPClient {
	// A zero Timeout leaves the transfer unbounded; stream bodies can
	// legitimately take a long time to drain.
	if cfg.KATimeout == 0 {
		cfg.KATimeout = 60 * time.Second
	}
	transport := &http.Transport{
		IdleConnTimeout:     cfg.KATimeout,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		DisableCompression:  true,
	}
	if cfg.ProxyURL != "" {
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err == nil {
			if cfg.ProxyUsername != "" {
				if cfg.ProxyPassword != "" {
					proxyURL.User = url.UserPassword(cfg.ProxyUsername, cfg.ProxyPassword)
				} else {
					proxyURL.User = url.User(cfg.ProxyUsername)
				}
			}
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	return &GrabHTTPClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		config: cfg,
	}
}

func (g *GrabHTTPClient) SetHeader(key, value string) {
	if g.config.Headers == nil {
		g.config.Headers = make(map[string]string)
	}
	g.config.Headers[key] = value
}

func (g *GrabHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if g.config.UserAgent != "" {
		req.Header.Set("User-Agent", g.config.UserAgent)
	} else {
		req.Header.Set("User-Agent", "Tubegrab-CLI")
	}
	for k, v := range g.config.Headers {
		req.Header.Set(k, v)
	}
	return g.client.Do(req)
}
