package devtools

import (
	"os"
	"path/filepath"
	"testing"
)

// --- read / write / append ---

func TestWriteThenRead_RoundTrips(t *testing.T) {
	ws := testWorkspace(t)
	if err := ws.WriteFile("notes.md", "hello"); err != nil {
		t.Fatal(err)
	}
	got, err := ws.ReadFile("notes.md")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}

func TestWriteFile_CreatesParentDirectories(t *testing.T) {
	ws := testWorkspace(t)
	if err := ws.WriteFile("a/b/c.txt", "x"); err != nil {
		t.Fatalf("expected nested write to succeed: %v", err)
	}
}

func TestAppendFile_AppendsToExisting(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("log.txt", "one\n")
	if err := ws.AppendFile("log.txt", "two\n"); err != nil {
		t.Fatal(err)
	}
	got, _ := ws.ReadFile("log.txt")
	if got != "one\ntwo\n" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestAppendFile_CreatesMissingFile(t *testing.T) {
	ws := testWorkspace(t)
	if err := ws.AppendFile("new.txt", "first"); err != nil {
		t.Fatal(err)
	}
	got, _ := ws.ReadFile("new.txt")
	if got != "first" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestReadFile_OutsideWorkspaceRejected(t *testing.T) {
	ws := testWorkspace(t)
	if _, err := ws.ReadFile("../secrets"); err == nil {
		t.Error("expected escape to be rejected")
	}
}

// --- list / mkdir / move ---

func TestListDirectory_MarksDirectoriesWithSlash(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("file.txt", "x")
	ws.CreateDirectory("sub")

	entries, err := ws.ListDirectory(".")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %v", entries)
	}
	// Sorted: file.txt before sub/.
	if entries[0] != "file.txt" || entries[1] != "sub/" {
		t.Errorf("unexpected entries %v", entries)
	}
}

func TestListDirectory_EmptyPathIsRoot(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("only.txt", "x")
	entries, err := ws.ListDirectory("")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected root listing, got %v", entries)
	}
}

func TestMoveFile_MovesAcrossDirectories(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("src.txt", "payload")
	if err := ws.MoveFile("src.txt", "archive/dst.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.ReadFile("src.txt"); err == nil {
		t.Error("expected source to be gone")
	}
	got, err := ws.ReadFile("archive/dst.txt")
	if err != nil || got != "payload" {
		t.Errorf("expected payload at destination, got %q (%v)", got, err)
	}
}

func TestMoveFile_DestinationOutsideRejected(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("src.txt", "x")
	if err := ws.MoveFile("src.txt", "../escape.txt"); err == nil {
		t.Error("expected escape destination to be rejected")
	}
}

// --- delete / copy / info ---

func TestDeleteFile_RemovesFile(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("gone.txt", "x")
	if err := ws.DeleteFile("gone.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.ReadFile("gone.txt"); err == nil {
		t.Error("expected file to be gone")
	}
}

func TestDeleteFile_RejectsDirectory(t *testing.T) {
	ws := testWorkspace(t)
	ws.CreateDirectory("dir")
	if err := ws.DeleteFile("dir"); err == nil {
		t.Error("expected directory to be rejected")
	}
}

func TestDeleteDirectory_EmptyOnly(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("full/keep.txt", "x")
	if err := ws.DeleteDirectory("full", false); err == nil {
		t.Error("expected non-empty delete without recursive to fail")
	}
	if err := ws.DeleteDirectory("full", true); err != nil {
		t.Fatal(err)
	}
	if _, err := ws.ReadFile("full/keep.txt"); err == nil {
		t.Error("expected directory contents to be gone")
	}
}

func TestDeleteDirectory_RootRejected(t *testing.T) {
	ws := testWorkspace(t)
	if err := ws.DeleteDirectory("", true); err == nil {
		t.Error("expected workspace root delete to be rejected")
	}
	if err := ws.DeleteDirectory(".", true); err == nil {
		t.Error("expected workspace root delete to be rejected")
	}
}

func TestCopyFile_CopiesContentAndKeepsSource(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("src.txt", "payload")
	if err := ws.CopyFile("src.txt", "backup/dst.txt"); err != nil {
		t.Fatal(err)
	}
	src, _ := ws.ReadFile("src.txt")
	dst, _ := ws.ReadFile("backup/dst.txt")
	if src != "payload" || dst != "payload" {
		t.Errorf("expected payload at both ends, got %q and %q", src, dst)
	}
}

func TestCopyFile_CopiesDirectoryTree(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("proj/a.txt", "a")
	ws.WriteFile("proj/sub/b.txt", "b")
	if err := ws.CopyFile("proj", "proj2"); err != nil {
		t.Fatal(err)
	}
	a, _ := ws.ReadFile("proj2/a.txt")
	b, _ := ws.ReadFile("proj2/sub/b.txt")
	if a != "a" || b != "b" {
		t.Errorf("expected copied tree, got %q and %q", a, b)
	}
}

func TestCopyFile_DestinationOutsideRejected(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("src.txt", "x")
	if err := ws.CopyFile("src.txt", "../escape.txt"); err == nil {
		t.Error("expected escape destination to be rejected")
	}
}

func TestFileInfo_CountsTextLines(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("code.go", "package main\n\nfunc main() {}\n")
	info, err := ws.FileInfo("code.go")
	if err != nil {
		t.Fatal(err)
	}
	if info.Dir {
		t.Error("expected a file, not a directory")
	}
	if info.Size != int64(len("package main\n\nfunc main() {}\n")) {
		t.Errorf("unexpected size %d", info.Size)
	}
	if info.Lines != 3 {
		t.Errorf("expected 3 lines, got %d", info.Lines)
	}
}

func TestFileInfo_BinaryFileHasNoLineCount(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("blob.bin", string([]byte{0xff, 0xfe, 0x00}))
	info, err := ws.FileInfo("blob.bin")
	if err != nil {
		t.Fatal(err)
	}
	if info.Lines != -1 {
		t.Errorf("expected no line count for binary content, got %d", info.Lines)
	}
}

func TestFileInfo_Directory(t *testing.T) {
	ws := testWorkspace(t)
	ws.CreateDirectory("dir")
	info, err := ws.FileInfo("dir")
	if err != nil {
		t.Fatal(err)
	}
	if !info.Dir || info.Lines != -1 {
		t.Errorf("expected directory with no line count, got %+v", info)
	}
}

// --- search ---

func TestSearchFiles_MatchesByBaseName(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("main.go", "package main")
	ws.WriteFile("pkg/util.go", "package pkg")
	ws.WriteFile("README.md", "# readme")

	matches, err := ws.SearchFiles("", "*.go")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %v", matches)
	}
	for _, m := range matches {
		if filepath.IsAbs(m) {
			t.Errorf("expected workspace-relative path, got %q", m)
		}
	}
}

func TestSearchFiles_NoMatchesReturnsEmpty(t *testing.T) {
	ws := testWorkspace(t)
	ws.WriteFile("a.txt", "x")
	matches, err := ws.SearchFiles("", "*.rs")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}

func TestSearchFiles_BadPatternRejected(t *testing.T) {
	ws := testWorkspace(t)
	if _, err := ws.SearchFiles("", "[unclosed"); err == nil {
		t.Error("expected malformed pattern to be rejected")
	}
}

func TestSearchFiles_SkipsInaccessibleDirs(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores permission bits")
	}
	ws := testWorkspace(t)
	ws.WriteFile("ok.go", "x")
	ws.CreateDirectory("locked")
	ws.WriteFile("locked/hidden.go", "x")
	locked, _ := ws.Resolve("locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	matches, err := ws.SearchFiles("", "*.go")
	if err != nil {
		t.Fatalf("expected silent skip, got %v", err)
	}
	if len(matches) != 1 || matches[0] != "ok.go" {
		t.Errorf("expected only the accessible file, got %v", matches)
	}
}
