package http_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type generateResp struct {
	Success bool `json:"success"`
	Data    struct {
		ID          string `json:"id"`
		Topic       string `json:"topic"`
		Format      string `json:"format"`
		DownloadURL string `json:"downloadUrl"`
	} `json:"data"`
}

func Test_GenerateCourse_Text(t *testing.T) {
	env := newTestEnv(t)
	env.Gen.content = "Lesson 1: basics.\nLesson 2: more."

	w := env.do("POST", "/api/v1/courses/generate", `{"topic":"Intro to Go","format":"txt"}`, nil)
	if w.Code != 201 {
		t.Fatalf("generate: %d %s", w.Code, w.Body.String())
	}
	var gr generateResp
	if err := json.Unmarshal(w.Body.Bytes(), &gr); err != nil || !gr.Success {
		t.Fatalf("generate resp: %v; %s", err, w.Body.String())
	}
	if _, err := uuid.Parse(gr.Data.ID); err != nil {
		t.Fatalf("id is not a uuid: %q", gr.Data.ID)
	}
	if gr.Data.Format != "txt" || gr.Data.Topic != "Intro to Go" {
		t.Fatalf("unexpected data: %+v", gr.Data)
	}
	if gr.Data.DownloadURL != "/api/v1/courses/export/"+gr.Data.ID+"?format=txt" {
		t.Fatalf("downloadUrl: %q", gr.Data.DownloadURL)
	}

	// the download URL round-trips to the exact generated content
	w = env.do("GET", gr.Data.DownloadURL, "", nil)
	if w.Code != 200 {
		t.Fatalf("export: %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Lesson 1: basics.") {
		t.Fatalf("artifact body mismatch: %q", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "course-"+gr.Data.ID+".txt") {
		t.Fatalf("content-disposition: %q", cd)
	}
}

func Test_GenerateCourse_PDF(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/v1/courses/generate", `{"topic":"Databases","format":"pdf"}`, nil)
	if w.Code != 201 {
		t.Fatalf("generate pdf: %d %s", w.Code, w.Body.String())
	}
	var gr generateResp
	if err := json.Unmarshal(w.Body.Bytes(), &gr); err != nil {
		t.Fatal(err)
	}

	w = env.do("GET", "/api/v1/courses/export/"+gr.Data.ID+"?format=pdf", "", nil)
	if w.Code != 200 {
		t.Fatalf("export pdf: %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "%PDF-") {
		t.Fatalf("not a pdf: %q", w.Body.String()[:16])
	}
}

func Test_GenerateCourse_LegacyPromptField(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/v1/courses/generate", `{"coursePrompt":"Legacy topic"}`, nil)
	if w.Code != 201 {
		t.Fatalf("generate via coursePrompt: %d %s", w.Code, w.Body.String())
	}
	var gr generateResp
	_ = json.Unmarshal(w.Body.Bytes(), &gr)
	if gr.Data.Topic != "Legacy topic" || gr.Data.Format != "txt" {
		t.Fatalf("legacy defaults: %+v", gr.Data)
	}
}

func Test_GenerateCourse_Validation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/v1/courses/generate", `{"topic":"   "}`, nil)
	if w.Code != 400 || !strings.Contains(w.Body.String(), "Topic is required") {
		t.Fatalf("blank topic: %d %s", w.Code, w.Body.String())
	}

	w = env.do("POST", "/api/v1/courses/generate", `{"topic":"X","format":"docx"}`, nil)
	if w.Code != 400 || !strings.Contains(w.Body.String(), "Invalid format") {
		t.Fatalf("bad format: %d %s", w.Code, w.Body.String())
	}
}

func Test_GenerateCourse_UpstreamError(t *testing.T) {
	env := newTestEnv(t)
	env.Gen.err = errors.New("model overloaded")

	w := env.do("POST", "/api/v1/courses/generate", `{"topic":"X"}`, nil)
	if w.Code != 500 {
		t.Fatalf("upstream error: %d %s", w.Code, w.Body.String())
	}
	// dev mode surfaces the cause
	if !strings.Contains(w.Body.String(), "model overloaded") {
		t.Fatalf("expected details in dev mode: %s", w.Body.String())
	}
}

func Test_ExportCourse_Unknown(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/api/v1/courses/export/"+uuid.NewString(), "", nil)
	if w.Code != 404 {
		t.Fatalf("unknown id: %d", w.Code)
	}

	w = env.do("GET", "/api/v1/courses/export/not-a-uuid", "", nil)
	if w.Code != 404 {
		t.Fatalf("malformed id: %d", w.Code)
	}

	w = env.do("GET", "/api/v1/courses/export/"+uuid.NewString()+"?format=exe", "", nil)
	if w.Code != 400 {
		t.Fatalf("bad format: %d", w.Code)
	}
}
