package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/api/rest/handlers"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/api/rest/routes"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/deploy"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/events"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/monitor"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/policy"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/runner"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/sanitizer"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/storage/memory"
	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/versioning"
)

type stubRunner struct{}

func (stubRunner) SubmitJob(_ context.Context, spec runner.Spec) (string, error) {
	return "ext-" + spec.JobID, nil
}

func (stubRunner) CancelJob(context.Context, string) error { return nil }

func newServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	logger := zap.NewNop()
	bus := events.NewBus()

	catalog := policy.DefaultCatalog()
	rates := policy.NewRateCache(catalog, nil, 0, logger)
	enforcer := policy.NewEnforcer(catalog, rates)

	mon := monitor.NewMonitor(store, store, store, enforcer, bus, logger)
	mon.SetRunner(stubRunner{})

	scripts := versioning.NewStore(store, store, logger)
	registrar := deploy.NewRegistrar(store, store, store, bus, logger)

	r := mux.NewRouter()
	routes.SetupRoutes(r,
		handlers.NewProjectHandler(store, bus, logger),
		handlers.NewScriptHandler(scripts, store, store, sanitizer.NewScanner(), logger),
		handlers.NewJobHandler(mon, store, store, logger),
		handlers.NewModelHandler(registrar, store, logger),
	)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, method, url string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func createProject(t *testing.T, srv *httptest.Server, tier string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/projects", map[string]string{
		"user_id": "u1",
		"name":    "churn model",
		"tier":    tier,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func uploadDataset(t *testing.T, srv *httptest.Server, projectID string) {
	t.Helper()
	csv := "age,churned\n34,0\n27,1\n"
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/projects/"+projectID+"/dataset", strings.NewReader(csv))
	require.NoError(t, err)
	req.Header.Set("X-Filename", "customers.csv")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	srv, _ := newServer(t)
	projectID := createProject(t, srv, "pro")

	uploadDataset(t, srv, projectID)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v1/projects/"+projectID+"/workflow", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "processing", body["stage"])
	assert.Equal(t, "config", body["step_name"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/v1/projects/"+projectID+"/script", map[string]string{
		"script": "model.fit(X, y)",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 1, body["version"])
	assert.Equal(t, "user", body["generated_by"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/v1/projects/"+projectID+"/jobs", map[string]interface{}{
		"machine_type": "p3.2xlarge",
		"max_hours":    4,
		"task_type":    "classification",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "provisioning", body["status"])
	jobID, _ := body["id"].(string)
	require.NotEmpty(t, jobID)

	// callback drives the job to succeeded
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/runner/callback", map[string]interface{}{
		"job_id": jobID,
		"status": "running",
		"seq":    1,
		"logs":   []string{"epoch 1"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/runner/callback", map[string]interface{}{
		"job_id":        jobID,
		"status":        "succeeded",
		"seq":           2,
		"metrics":       map[string]interface{}{"task_type": "classification", "accuracy": 0.91},
		"runtime_hours": 2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/jobs/"+jobID+"/logs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lines, _ := body["lines"].([]interface{})
	assert.Len(t, lines, 1)

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/v1/projects/"+projectID+"/models", map[string]string{
		"job_id": jobID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "private", body["visibility"])
	modelID, _ := body["id"].(string)

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/v1/models/"+modelID+"/visibility", map[string]string{
		"visibility": "public",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public", body["visibility"])
}

func TestSuggestionFlowOverHTTP(t *testing.T) {
	srv, _ := newServer(t)
	projectID := createProject(t, srv, "pro")
	uploadDataset(t, srv, projectID)

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/v1/projects/"+projectID+"/script", map[string]string{
		"script": "print('v1')",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/v1/projects/"+projectID+"/suggestions", map[string]string{
		"rationale": "clean up temp files",
		"code":      "shutil.rmtree('/tmp/run')",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	suggestionID, _ := body["id"].(string)
	scan, _ := body["scan"].(map[string]interface{})
	require.NotNil(t, scan)
	assert.Equal(t, false, scan["safe"])

	// blocked without override
	applyURL := fmt.Sprintf("%s/v1/projects/%s/suggestions/%s/apply", srv.URL, projectID, suggestionID)
	resp, body = doJSON(t, http.MethodPost, applyURL, map[string]bool{})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "security", body["kind"])

	// override applies and commits an ai version
	resp, body = doJSON(t, http.MethodPost, applyURL, map[string]bool{"override": true})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 2, body["version"])
	assert.Equal(t, "ai", body["generated_by"])

	// second apply conflicts
	resp, body = doJSON(t, http.MethodPost, applyURL, map[string]bool{"override": true})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "conflict", body["kind"])

	// the two versions diff
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/v1/projects/"+projectID+"/script/1/diff/2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	diffLines, _ := body["lines"].([]interface{})
	assert.NotEmpty(t, diffLines)
}

func TestErrorStatusMapping(t *testing.T) {
	srv, _ := newServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/v1/projects/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", body["kind"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/v1/projects", map[string]string{
		"user_id": "u1",
		"name":    "x",
		"tier":    "platinum",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["kind"])

	projectID := createProject(t, srv, "free")
	uploadDataset(t, srv, projectID)
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/v1/projects/"+projectID+"/script", map[string]string{"script": "x = 1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// over the free tier ceiling
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/v1/projects/"+projectID+"/jobs", map[string]interface{}{
		"machine_type": "g4dn.xlarge",
		"max_hours":    10,
		"task_type":    "classification",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", body["kind"])
}
