package probe

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func splitHostPort(t *testing.T, raw string) (string, int) {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("split host: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func TestProber_GetDecodesJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/monitoring" {
			t.Errorf("path = %s, want /monitoring", r.URL.Path)
		}
		if r.URL.Query().Get("cell") != "1" {
			t.Errorf("query cell = %q", r.URL.Query().Get("cell"))
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"up":true,"cells":[1,2]}`))
	}))
	defer ts.Close()

	host, port := splitHostPort(t, ts.URL)
	resp, err := New(ts.Client(), nil).Do(context.Background(), Target{
		Host:     host,
		Port:     port,
		Resource: "/monitoring",
		Query:    url.Values{"cell": {"1"}},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	want := Response{
		Status: http.StatusOK,
		Reason: "OK",
		Body:   map[string]any{"up": true, "cells": []any{float64(1), float64(2)}},
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestProber_PostSendsBody(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	host, port := splitHostPort(t, ts.URL)
	resp, err := New(ts.Client(), nil).Do(context.Background(), Target{
		Host: host, Port: port, Resource: "/samples", Method: http.MethodPost,
		Body: map[string]int{"n": 20},
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Status != http.StatusCreated || resp.Body != nil {
		t.Errorf("resp = %+v", resp)
	}
	if got["n"] != float64(20) {
		t.Errorf("server got body %v", got)
	}
}

func TestProber_NonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	host, port := splitHostPort(t, ts.URL)
	resp, err := New(ts.Client(), nil).Ping(context.Background(), host, port, "/")
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if resp.OK() || resp.Status != http.StatusServiceUnavailable || resp.Reason != "Service Unavailable" {
		t.Errorf("resp = %+v", resp)
	}
}

type failingClient struct{ err error }

func (f failingClient) Do(*http.Request) (*http.Response, error) { return nil, f.err }

func TestProber_TransportFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"connect", &url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, "ConnectError"},
		{"deadline", &url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded}, "Timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := New(failingClient{tt.err}, nil).Ping(context.Background(), "10.0.0.1", 5000, "/")
			if err != nil {
				t.Fatalf("transport failures are reported in the response, got err %v", err)
			}
			if resp.Status != http.StatusInternalServerError || resp.Reason != tt.want {
				t.Errorf("resp = %+v, want 500 %s", resp, tt.want)
			}
		})
	}
}

func TestProber_InvalidJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer ts.Close()

	host, port := splitHostPort(t, ts.URL)
	if _, err := New(ts.Client(), nil).Do(context.Background(), Target{Host: host, Port: port, Timeout: time.Second}); err == nil {
		t.Error("expected decode error")
	}
}

func TestTarget_URL(t *testing.T) {
	got := Target{Host: "192.168.159.160", Port: 5000}.URL()
	if got != "http://192.168.159.160:5000/" {
		t.Errorf("URL() = %s", got)
	}
}
