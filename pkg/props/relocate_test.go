// Copyright 2026 VMware, Inc.
// SPDX-License-Identifier: BSD-2-Clause

package props

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const ordersYAML = `models:
  - name: orders
    description: Order facts
    columns:
      - name: id
        description: Primary key
`

func writeAt(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestRelocateToNewFile(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, "models", "staging", "_stg__models.yml")
	expected := filepath.Join(dir, "models", "marts", "_marts__models.yml")
	writeAt(t, current, ordersYAML)

	mutated, err := New().Relocate(current, expected, "orders")
	if err != nil {
		t.Fatal(err)
	}
	if !mutated {
		t.Errorf("got mutated=false, want true")
	}

	if _, err := os.Stat(current); !os.IsNotExist(err) {
		t.Errorf("source file still exists")
	}
	if got, want := readBack(t, expected), ordersYAML; got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestRelocateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "staging", "_stg__models.yml")
	b := filepath.Join(dir, "marts", "_marts__models.yml")
	writeAt(t, a, ordersYAML)

	p := New()
	if _, err := p.Relocate(a, b, "orders"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Relocate(b, a, "orders"); err != nil {
		t.Fatal(err)
	}

	if got, want := readBack(t, a), ordersYAML; got != want {
		t.Errorf("round trip changed the file:\ngot:\n%s\nwant:\n%s", got, want)
	}
	if _, err := os.Stat(b); !os.IsNotExist(err) {
		t.Errorf("intermediate file still exists")
	}
}

func TestRelocateSamePath(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, "_stg__models.yml")
	writeAt(t, current, ordersYAML)

	mutated, err := New().Relocate(current, filepath.Join(dir, ".", "_stg__models.yml"), "orders")
	if err != nil {
		t.Fatal(err)
	}
	if mutated {
		t.Errorf("got mutated=true, want false")
	}
	if got, want := readBack(t, current), ordersYAML; got != want {
		t.Errorf("file changed on no-op relocate:\n%s", got)
	}
}

func TestRelocateMissingCurrent(t *testing.T) {
	dir := t.TempDir()
	_, err := New().Relocate(filepath.Join(dir, "absent.yml"), filepath.Join(dir, "other.yml"), "orders")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRelocateModelNotFound(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, "a.yml")
	expected := filepath.Join(dir, "b.yml")
	writeAt(t, current, ordersYAML)

	_, err := New().Relocate(current, expected, "payments")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if got, want := readBack(t, current), ordersYAML; got != want {
		t.Errorf("source modified on failed relocate:\n%s", got)
	}
	if _, err := os.Stat(expected); !os.IsNotExist(err) {
		t.Errorf("target file created on failed relocate")
	}
}

func TestRelocateKeepsRemainingModels(t *testing.T) {
	const two = `models:
  - name: orders
    columns:
      - name: id
  - name: customers
    columns:
      - name: id
`
	dir := t.TempDir()
	current := filepath.Join(dir, "a.yml")
	expected := filepath.Join(dir, "b.yml")
	writeAt(t, current, two)

	if _, err := New().Relocate(current, expected, "orders"); err != nil {
		t.Fatal(err)
	}

	src := readBack(t, current)
	if strings.Contains(src, "name: orders") {
		t.Errorf("moved model still in source:\n%s", src)
	}
	if !strings.Contains(src, "name: customers") {
		t.Errorf("remaining model lost:\n%s", src)
	}
	dst := readBack(t, expected)
	if !strings.Contains(dst, "name: orders") {
		t.Errorf("moved model missing from target:\n%s", dst)
	}
}

func TestRelocateReplacesSameNamedModel(t *testing.T) {
	const stale = `models:
  - name: orders
    description: stale copy
  - name: payments
    columns:
      - name: id
`
	dir := t.TempDir()
	current := filepath.Join(dir, "a.yml")
	expected := filepath.Join(dir, "b.yml")
	writeAt(t, current, ordersYAML)
	writeAt(t, expected, stale)

	if _, err := New().Relocate(current, expected, "orders"); err != nil {
		t.Fatal(err)
	}

	dst := readBack(t, expected)
	if strings.Contains(dst, "stale copy") {
		t.Errorf("stale entry not replaced:\n%s", dst)
	}
	if got, want := strings.Count(dst, "name: orders"), 1; got != want {
		t.Errorf("got %d orders entries, want %d:\n%s", got, want, dst)
	}
	if !strings.Contains(dst, "name: payments") {
		t.Errorf("unrelated model lost:\n%s", dst)
	}
}

func TestRelocateKeepsNonEmptySource(t *testing.T) {
	const withSources = `sources:
  - name: raw
models:
  - name: orders
    columns:
      - name: id
`
	dir := t.TempDir()
	current := filepath.Join(dir, "a.yml")
	expected := filepath.Join(dir, "b.yml")
	writeAt(t, current, withSources)

	if _, err := New().Relocate(current, expected, "orders"); err != nil {
		t.Fatal(err)
	}

	src := readBack(t, current)
	if !strings.Contains(src, "name: raw") {
		t.Errorf("sources lost:\n%s", src)
	}
	if strings.Contains(src, "models:") {
		t.Errorf("emptied models key should be dropped:\n%s", src)
	}
}

func TestRelocateCarriesComments(t *testing.T) {
	const commented = `models:
  # orders fact table
  - name: orders
    columns:
      - name: id
`
	dir := t.TempDir()
	current := filepath.Join(dir, "a.yml")
	expected := filepath.Join(dir, "b.yml")
	writeAt(t, current, commented)

	if _, err := New().Relocate(current, expected, "orders"); err != nil {
		t.Fatal(err)
	}

	dst := readBack(t, expected)
	if !strings.Contains(dst, "# orders fact table") {
		t.Errorf("comment lost in relocation:\n%s", dst)
	}
}

func TestRelocateModelsNotASequence(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, "a.yml")
	writeAt(t, current, "models: 42\n")

	_, err := New().Relocate(current, filepath.Join(dir, "b.yml"), "orders")
	if !errors.Is(err, ErrStructure) {
		t.Fatalf("got %v, want ErrStructure", err)
	}
}
