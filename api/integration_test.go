package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/sgnd/daemon"
)

func newTestDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	return newTestDaemonAt(t, t.TempDir())
}

func testConfig(dir string) daemon.Config {
	return daemon.Config{
		DataDir:      dir,
		HTTPPort:     0,
		DBPath:       filepath.Join(dir, "sgn.db"),
		KUsDir:       filepath.Join(dir, "kus"),
		LogsDir:      filepath.Join(dir, "logs"),
		TrustPath:    filepath.Join(dir, "trust.json"),
		EdgesDBPath:  filepath.Join(dir, "sgn-edges.db"),
		OutboxDBPath: filepath.Join(dir, "sgn-outbox.db"),
		TrustMode:    "warn",
	}
}

func newTestDaemonAt(t *testing.T, dir string) *daemon.Daemon {
	t.Helper()
	d, err := daemon.New(testConfig(dir))
	require.NoError(t, err)
	d.Start()
	t.Cleanup(d.Shutdown)
	return d
}

func sampleKUJSON(payloadTitle string) []byte {
	doc := map[string]interface{}{
		"type":         "ku.patch.migration",
		"schema_id":    "ku.v1",
		"content_type": "application/json",
		"payload": map[string]interface{}{
			"title":       payloadTitle,
			"description": "fixes a bug",
			"severity":    "high",
			"confidence":  0.8,
		},
		"parents":    []string{},
		"sources":    []string{},
		"tests":      []string{},
		"provenance": map[string]interface{}{"agent_pubkey": nil},
		"tags":       []string{"bugfix"},
	}
	b, _ := json.Marshal(doc)
	return b
}

func TestPublishThenGetKU(t *testing.T) {
	d := newTestDaemon(t)
	srv := httptest.NewServer(NewRouter(d))
	defer srv.Close()

	body, _ := json.Marshal(map[string]interface{}{"ku": json.RawMessage(sampleKUJSON("first fix"))})
	resp, err := http.Post(srv.URL+"/publish", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var publishResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&publishResp))
	require.True(t, publishResp["ok"].(bool))
	require.True(t, publishResp["stored"].(bool))
	cid := publishResp["cid"].(string)
	require.NotEmpty(t, cid)

	getResp, err := http.Get(srv.URL + "/ku/" + cid)
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)
}

func TestPublishDedupSecondCall(t *testing.T) {
	d := newTestDaemon(t)
	srv := httptest.NewServer(NewRouter(d))
	defer srv.Close()

	body, _ := json.Marshal(map[string]interface{}{"ku": json.RawMessage(sampleKUJSON("dedup test"))})

	first, err := http.Post(srv.URL+"/publish", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	first.Body.Close()

	second, err := http.Post(srv.URL+"/publish", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer second.Body.Close()

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(second.Body).Decode(&resp))
	require.True(t, resp["stored"].(bool))
	require.False(t, resp["enqueued"].(bool))
}

func TestGetUnknownKUReturns404(t *testing.T) {
	d := newTestDaemon(t)
	srv := httptest.NewServer(NewRouter(d))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ku/cid-blake3:doesnotexist")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEdgesInsertIdempotentOverHTTP(t *testing.T) {
	d := newTestDaemon(t)
	srv := httptest.NewServer(NewRouter(d))
	defer srv.Close()

	reqBody, _ := json.Marshal(map[string]interface{}{"src": "a", "dst": "b", "type": "applies_to"})

	first, err := http.Post(srv.URL+"/edges", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	var firstResp map[string]interface{}
	require.NoError(t, json.NewDecoder(first.Body).Decode(&firstResp))
	first.Body.Close()
	require.True(t, firstResp["inserted"].(bool))

	second, err := http.Post(srv.URL+"/edges", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	var secondResp map[string]interface{}
	require.NoError(t, json.NewDecoder(second.Body).Decode(&secondResp))
	second.Body.Close()
	require.False(t, secondResp["inserted"].(bool))

	graphResp, err := http.Get(fmt.Sprintf("%s/graph/a?depth=2", srv.URL))
	require.NoError(t, err)
	defer graphResp.Body.Close()
	require.Equal(t, http.StatusOK, graphResp.StatusCode)
}

func TestAdminConsistencyReportsClean(t *testing.T) {
	d := newTestDaemon(t)
	srv := httptest.NewServer(NewRouter(d))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/admin/consistency")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	require.True(t, report["consistent"].(bool))
}

func TestOutboxSurvivesRestartAndDrains(t *testing.T) {
	dir := t.TempDir()

	first, err := daemon.New(testConfig(dir))
	require.NoError(t, err)
	srv := httptest.NewServer(NewRouter(first))

	for i := 0; i < 3; i++ {
		body, _ := json.Marshal(map[string]interface{}{"ku": json.RawMessage(sampleKUJSON(fmt.Sprintf("pending %d", i)))})
		resp, err := http.Post(srv.URL+"/publish", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	srv.Close()
	first.Shutdown()

	second, err := daemon.New(testConfig(dir))
	require.NoError(t, err)
	t.Cleanup(second.Shutdown)
	srv2 := httptest.NewServer(NewRouter(second))
	defer srv2.Close()

	resp, err := http.Post(srv2.URL+"/admin/drain", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var drainResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&drainResp))
	require.Equal(t, float64(3), drainResp["drained"])
}

func TestLiveAndHealth(t *testing.T) {
	d := newTestDaemon(t)
	srv := httptest.NewServer(NewRouter(d))
	defer srv.Close()

	live, err := http.Get(srv.URL + "/live")
	require.NoError(t, err)
	live.Body.Close()
	require.Equal(t, http.StatusNoContent, live.StatusCode)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	require.Equal(t, http.StatusOK, health.StatusCode)
}
