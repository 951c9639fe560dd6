package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	goavsc "github.com/reoring/goavsc"
	"github.com/reoring/goavsc/internal/logging"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("GOAVSC_LOG_NOCOLOR", "true")
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

const userSchema = `{"type":"record","name":"User","namespace":"com.ex","fields":[{"name":"id","type":"long"},{"name":"tag","type":"string","default":""}]}`

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "user.avsc", userSchema)
	bad := writeFile(t, dir, "enum.avsc", `{"type":"enum","name":"E","symbols":["A","B","A"]}`)

	code, _, stderr := runCLI(t, "check", good)
	if code != 0 || !strings.Contains(stderr, "name=com.ex.User") {
		t.Fatalf("check good: code=%d stderr=%s", code, stderr)
	}

	code, _, stderr = runCLI(t, "check", good, bad)
	if code != 1 || !strings.Contains(stderr, "code=duplicate_symbol") || !strings.Contains(stderr, "at=/symbols/2") {
		t.Fatalf("check bad: code=%d stderr=%s", code, stderr)
	}

	code, _, _ = runCLI(t, "check", filepath.Join(dir, "missing.avsc"))
	if code != 1 {
		t.Fatalf("missing file: code=%d", code)
	}
}

func TestCheck_YAML(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "user.yaml", "type: fixed\nname: Hash\nsize: 16\n")
	if code, _, stderr := runCLI(t, "check", p); code != 0 {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
	q := writeFile(t, dir, "user.txt", "type: int\n")
	if code, _, stderr := runCLI(t, "check", "-yaml", q); code != 0 {
		t.Fatalf("-yaml: code=%d stderr=%s", code, stderr)
	}
}

func TestCheck_StrictKeys(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "dup.avsc", `{"type":"int","type":"long"}`)
	if code, _, _ := runCLI(t, "check", p); code != 0 {
		t.Fatalf("duplicates are ignored by default, code=%d", code)
	}
	code, _, stderr := runCLI(t, "check", "-strict-keys", p)
	if code != 1 || !strings.Contains(stderr, "duplicate_key") {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
	cfg := writeFile(t, dir, "goavsc.toml", "duplicate_keys = \"error\"\n")
	if code, _, _ := runCLI(t, "check", "-config", cfg, p); code != 1 {
		t.Fatalf("config duplicate_keys=error: code=%d", code)
	}
}

func TestCheck_MaxDepth(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "deep.avsc", `{"type":"array","items":{"type":"array","items":{"type":"array","items":"int"}}}`)
	code, _, stderr := runCLI(t, "check", "-max-depth", "2", p)
	if code != 1 || !strings.Contains(stderr, "schema_too_deep") {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
}

func TestFmt(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "user.avsc", userSchema)

	code, stdout, stderr := runCLI(t, "fmt", p)
	want := `{"fields":[{"name":"id","type":"long"},{"default":"","name":"tag","type":"string"}],"name":"User","namespace":"com.ex","type":"record"}` + "\n"
	if code != 0 || stdout != want {
		t.Fatalf("fmt: code=%d stdout=%s stderr=%s", code, stdout, stderr)
	}

	code, stdout, _ = runCLI(t, "fmt", "-canonical", p)
	want = `{"name":"com.ex.User","type":"record","fields":[{"name":"id","type":"long"},{"name":"tag","type":"string"}]}` + "\n"
	if code != 0 || stdout != want {
		t.Fatalf("fmt -canonical: code=%d stdout=%s", code, stdout)
	}

	code, stdout, _ = runCLI(t, "fmt", "-indent", writeFile(t, dir, "arr.avsc", `{"type":"array","items":"int"}`))
	if code != 0 || stdout != "{\n  \"items\": \"int\",\n  \"type\": \"array\"\n}\n" {
		t.Fatalf("fmt -indent: code=%d stdout=%q", code, stdout)
	}

	if code, _, _ := runCLI(t, "fmt", p, p); code != 2 {
		t.Fatalf("fmt with two files: code=%d", code)
	}
}

func TestFmt_ExtractPath(t *testing.T) {
	dir := t.TempDir()
	asString := writeFile(t, dir, "registry.json", `{"subject":"users","version":3,"schema":"{\"type\":\"map\",\"values\":\"long\"}"}`)
	code, stdout, stderr := runCLI(t, "fmt", "-path", "schema", asString)
	if code != 0 || stdout != `{"type":"map","values":"long"}`+"\n" {
		t.Fatalf("string schema: code=%d stdout=%s stderr=%s", code, stdout, stderr)
	}

	asObject := writeFile(t, dir, "envelope.json", `{"data":{"schemas":[{"type":"fixed","name":"H","size":4}]}}`)
	code, stdout, _ = runCLI(t, "fmt", "-path", "data.schemas.0", asObject)
	if code != 0 || stdout != `{"name":"H","size":4,"type":"fixed"}`+"\n" {
		t.Fatalf("object schema: code=%d stdout=%s", code, stdout)
	}

	code, _, stderr = runCLI(t, "fmt", "-path", "nope", asObject)
	if code != 1 || !strings.Contains(stderr, "nothing at path") {
		t.Fatalf("missing path: code=%d stderr=%s", code, stderr)
	}
}

func TestFingerprint(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.avsc", userSchema)
	b := writeFile(t, dir, "b.avsc", `{"name":"com.ex.User","doc":"same","type":"record","fields":[{"name":"id","type":"long"},{"name":"tag","type":"string"}]}`)

	code, stdout, stderr := runCLI(t, "fingerprint", a, b)
	if code != 0 {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("stdout=%s", stdout)
	}
	re := regexp.MustCompile(`^([0-9a-f]{16})  ([0-9a-f]{64})  `)
	m0, m1 := re.FindStringSubmatch(lines[0]), re.FindStringSubmatch(lines[1])
	if m0 == nil || m1 == nil {
		t.Fatalf("unexpected format: %s", stdout)
	}
	if m0[1] != m1[1] || m0[2] != m1[2] {
		t.Fatalf("equivalent schemas have different fingerprints:\n%s", stdout)
	}
}

func TestPrintFingerprint_ReportsFailure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	a := &app{
		log:    logging.New(&stderr, logging.Config{Level: zerolog.InfoLevel, NoColor: true}),
		stdout: &stdout,
	}
	x1, _ := goavsc.NewFixed(goavsc.MustName("X"), 1)
	x2, _ := goavsc.NewFixed(goavsc.MustName("X"), 2)
	f1, _ := goavsc.NewField("a", x1)
	f2, _ := goavsc.NewField("b", x2)
	r, err := goavsc.NewRecord(goavsc.KindRecord, goavsc.MustName("R"), []*goavsc.Field{f1, f2})
	if err != nil {
		t.Fatal(err)
	}
	if a.printFingerprint("built", r) {
		t.Fatalf("expected failure, stdout=%s", stdout.String())
	}
	if stdout.Len() != 0 || !strings.Contains(stderr.String(), "code=duplicate_name") {
		t.Fatalf("stdout=%q stderr=%s", stdout.String(), stderr.String())
	}
}

func TestConfig_GoJSONDriver(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "goavsc.toml", "json_driver = \"go-json\"\nlog_level = \"debug\"\n")
	p := writeFile(t, dir, "user.avsc", userSchema)
	code, _, stderr := runCLI(t, "check", "-config", cfg, p)
	if code != 0 || !strings.Contains(stderr, "driver=") {
		t.Fatalf("code=%d stderr=%s", code, stderr)
	}
	// Without the gojson build tag the stand-in driver is installed.
	if strings.Contains(stderr, "driver=go-json") == strings.Contains(stderr, "lacks the gojson tag") {
		t.Fatalf("expected a warning exactly when go-json is unavailable: %s", stderr)
	}
}

func TestUsage(t *testing.T) {
	if code, _, _ := runCLI(t); code != 2 {
		t.Fatalf("no args: code=%d", code)
	}
	if code, _, stderr := runCLI(t, "compile"); code != 2 || !strings.Contains(stderr, "unknown command") {
		t.Fatalf("unknown command: code=%d", code)
	}
	if code, stdout, _ := runCLI(t, "help"); code != 0 || !strings.Contains(stdout, "goavsc check") {
		t.Fatalf("help: code=%d", code)
	}
	if code, _, _ := runCLI(t, "check"); code != 2 {
		t.Fatalf("check without files: code=%d", code)
	}
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.toml", "duplicate_keys = \"often\"\n")
	if code, _, _ := runCLI(t, "check", "-config", bad, writeFile(t, dir, "a.avsc", `"int"`)); code != 2 {
		t.Fatalf("bad config: code=%d", code)
	}
}
