package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbiehn/promptpoll"
)

func chatResponse(content string) []byte {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return body
}

// fakeEndpoint answers filename requests with filename and everything else with answer(n), n counting main calls from 1.
func fakeEndpoint(t *testing.T, filename string, answer func(n int32, w http.ResponseWriter, r *http.Request)) *httptest.Server {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if _, ok := req["response_format"]; ok {
			_, _ = w.Write(chatResponse(`{"filename": "` + filename + `"}`))
			return
		}
		answer(atomic.AddInt32(&calls, 1), w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func setupEnv(t *testing.T, endpoint string) string {
	dir := t.TempDir()
	t.Setenv("PROMPTPOLL_ENDPOINT", endpoint)
	t.Setenv("PROMPTPOLL_LOG_FILE", filepath.Join(dir, "app.log"))
	t.Setenv("PROMPTPOLL_TIMEOUT", "")
	t.Setenv("PROMPTPOLL_MAX_PARALLEL", "")
	t.Setenv("PROMPTPOLL_RETRIES", "")
	return dir
}

func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	r := &runner{
		in:       strings.NewReader(stdin),
		out:      &out,
		now:      func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
		estimate: func(promptpoll.RequestSpec) (int, error) { return 4, nil },
	}
	envFile := filepath.Join(t.TempDir(), "none.env")
	err := newCommand(r).Run(context.Background(), append([]string{"promptpoll", "--env", envFile}, args...))
	return out.String(), err
}

func readRows(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunAllCallsSucceed(t *testing.T) {
	server := fakeEndpoint(t, "ping results", func(n int32, w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(chatResponse("pong"))
	})
	dir := setupEnv(t, server.URL)
	outDir := filepath.Join(dir, "results")

	out, err := runCommand(t, "", "--prompt", "ping", "--count", "5", "--parallel", "2", "--output-dir", outDir)
	require.NoError(t, err)

	path := filepath.Join(outDir, "pingresults.csv")
	assert.Contains(t, out, "Responses will be saved to: "+path)
	assert.Contains(t, out, "Finished! Responses saved to "+path)
	assert.Contains(t, out, "Fetched 5/5 responses...")
	assert.NotContains(t, out, "Failed to fetch a filename")

	rows := readRows(t, path)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"Response Number", "Response"}, rows[0])
	for i := 1; i <= 5; i++ {
		assert.Equal(t, []string{strconv.Itoa(i), "pong"}, rows[i])
	}

	logData, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	assert.Contains(t, string(logData), `"run_id"`)
	assert.Contains(t, string(logData), "Request 5 successful")
}

func TestRunFallsBackToDefaultFilename(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if _, ok := req["response_format"]; ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("unsupported response_format"))
			return
		}
		_, _ = w.Write(chatResponse("pong"))
	}))
	t.Cleanup(server.Close)
	dir := setupEnv(t, server.URL)

	out, err := runCommand(t, "", "--prompt", "ping", "--count", "2", "--output-dir", dir)
	require.NoError(t, err)

	path := filepath.Join(dir, promptpoll.DefaultFilename+".csv")
	assert.Contains(t, out, "Failed to fetch a filename. Using 'default_filename' instead.")
	assert.Contains(t, out, "Responses will be saved to: "+path)
	assert.Len(t, readRows(t, path), 3)
}

func TestRunRecordsTimedOutCall(t *testing.T) {
	server := fakeEndpoint(t, "x", func(n int32, w http.ResponseWriter, r *http.Request) {
		if n == 2 {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		_, _ = w.Write(chatResponse("answer"))
	})
	dir := setupEnv(t, server.URL)
	t.Setenv("PROMPTPOLL_TIMEOUT", "300ms")

	_, err := runCommand(t, "", "--prompt", "slow", "--count", "3", "--parallel", "1",
		"--output-dir", dir, "--name", "timeouts", "--outcome-column")
	require.NoError(t, err)

	rows := readRows(t, filepath.Join(dir, "timeouts.csv"))
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Response Number", "Response", "Outcome"}, rows[0])
	assert.Equal(t, []string{"1", "answer", "ok"}, rows[1])
	assert.Equal(t, "2", rows[2][0])
	assert.True(t, strings.HasPrefix(rows[2][1], "Error: "), rows[2][1])
	assert.Equal(t, "error", rows[2][2])
	assert.Equal(t, []string{"3", "answer", "ok"}, rows[3])
}

func TestRunInteractiveInputAndRatios(t *testing.T) {
	server := fakeEndpoint(t, "unused", func(n int32, w http.ResponseWriter, r *http.Request) {
		if n%3 == 0 {
			_, _ = w.Write(chatResponse("Man."))
			return
		}
		_, _ = w.Write(chatResponse("woman"))
	})
	dir := setupEnv(t, server.URL)
	metricsFile := filepath.Join(dir, "metrics.prom")

	out, err := runCommand(t, "say at random: man or woman ?\nmany\n-1\n6\n",
		"--output-dir", dir, "--name-mode", "timestamp", "--ratios", "--metrics-file", metricsFile)
	require.NoError(t, err)

	assert.Contains(t, out, "please enter a valid integer")
	assert.Contains(t, out, "number of requests must be a positive integer")
	assert.Contains(t, out, "woman")
	assert.Contains(t, out, "66.67%")

	path := filepath.Join(dir, promptpoll.TimestampedName("say at random: man or woman ?", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))+".csv")
	assert.Len(t, readRows(t, path), 7)

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `promptpoll_calls_total{outcome="success"} 6`)
}

func TestRunRejectsNonPositiveCountFlag(t *testing.T) {
	dir := setupEnv(t, "http://127.0.0.1:1")

	_, err := runCommand(t, "", "--prompt", "x", "--count", "0", "--output-dir", dir)
	assert.ErrorIs(t, err, promptpoll.ErrInvalidCount)
	_, statErr := os.Stat(filepath.Join(dir, "default_filename.csv"))
	assert.True(t, os.IsNotExist(statErr), "no file should be written")
}

func TestRunRejectsUnknownNameMode(t *testing.T) {
	dir := setupEnv(t, "http://127.0.0.1:1")

	_, err := runCommand(t, "", "--prompt", "x", "--count", "1", "--output-dir", dir, "--name-mode", "guess")
	assert.Error(t, err)
}
