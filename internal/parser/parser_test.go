package parser

import (
	"strings"
	"testing"

	"github.com/seitarof/gen-env/internal/attr"
)

func TestParse_BasicStruct(t *testing.T) {
	p := New()

	info, err := p.Parse("github.com/seitarof/gen-env/testdata/envbasic", "Config")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if info.Name != "Config" || info.PkgName != "envbasic" {
		t.Fatalf("unexpected struct: %s (%s)", info.Name, info.PkgName)
	}
	if len(info.Fields) != 9 {
		t.Fatalf("expected 9 fields, got %d", len(info.Fields))
	}
	if fieldByName(info.Fields, "_") != nil {
		t.Fatal("blank fields should be skipped")
	}
	if fieldByName(info.Fields, "Region") == nil {
		t.Fatal("named field sharing a declaration with a blank field should be kept")
	}
	if info.Imports["time"] != "time" {
		t.Fatalf("file imports not collected: %#v", info.Imports)
	}

	apiKey := fieldByName(info.Fields, "APIKey")
	if apiKey == nil {
		t.Fatal("APIKey field not found")
	}
	if len(apiKey.Blocks) != 1 || apiKey.Blocks[0].Origin != attr.OriginDirective {
		t.Fatalf("APIKey should carry one directive block, got %#v", apiKey.Blocks)
	}
	if apiKey.Blocks[0].Body != "from=SECRET_KEY" {
		t.Fatalf("directive body = %q", apiKey.Blocks[0].Body)
	}
	if len(apiKey.Docs) != 1 || apiKey.Docs[0] != "// APIKey authenticates outgoing calls." {
		t.Fatalf("docs should exclude the directive: %#v", apiKey.Docs)
	}
	if apiKey.NameSpan.Line == 0 || !strings.HasSuffix(apiKey.NameSpan.Filename, "types.go") {
		t.Fatalf("name span not set: %#v", apiKey.NameSpan)
	}

	retry := fieldByName(info.Fields, "RetryCount")
	if retry == nil || retry.TypeStr != "Option[uint32]" {
		t.Fatalf("RetryCount type = %#v", retry)
	}
	if len(retry.Blocks) != 0 {
		t.Fatalf("RetryCount has no annotations, got %d blocks", len(retry.Blocks))
	}

	timeout := fieldByName(info.Fields, "Timeout")
	if timeout == nil || len(timeout.Blocks) != 1 || timeout.Blocks[0].Body != "with=time.ParseDuration" {
		t.Fatalf("Timeout tag block not parsed: %#v", timeout)
	}
	if timeout.Struct != nil {
		t.Fatalf("time.Duration is not a struct: %#v", timeout.Struct)
	}

	db := fieldByName(info.Fields, "DB")
	if db == nil || db.Struct == nil || db.Struct.Name != "Database" {
		t.Fatalf("DB should reference Database struct: %#v", db)
	}

	verbose := fieldByName(info.Fields, "Verbose")
	if verbose == nil || len(verbose.Docs) != 1 || verbose.Docs[0] != "// enables debug output" {
		t.Fatalf("trailing comment not collected: %#v", verbose)
	}

	host := fieldByName(info.Fields, "Host")
	zone := fieldByName(info.Fields, "Zone")
	if host == nil || zone == nil {
		t.Fatal("multi-name field should expand to Host and Zone")
	}
	if len(zone.Blocks) != 1 || zone.Blocks[0].Body != "from" {
		t.Fatalf("Zone should share the tag block: %#v", zone.Blocks)
	}
	if host.NameSpan.Column == zone.NameSpan.Column {
		t.Fatal("Host and Zone should have distinct spans")
	}
}

func TestParseRecursive_FollowsNestedOnly(t *testing.T) {
	p := New()

	infos, err := p.ParseRecursive("github.com/seitarof/gen-env/testdata/envnested", "Root")
	if err != nil {
		t.Fatalf("ParseRecursive() error = %v", err)
	}

	wantOrder := []string{"Leaf", "Child", "Cache", "Root"}
	if len(infos) != len(wantOrder) {
		t.Fatalf("expected %d structs, got %d", len(wantOrder), len(infos))
	}
	for i, want := range wantOrder {
		if infos[i].Name != want {
			t.Fatalf("order[%d] = %s, want %s", i, infos[i].Name, want)
		}
	}
	if infos[2].PkgPath != "github.com/seitarof/gen-env/testdata/envnested/sub" {
		t.Fatalf("Cache should come from sub package, got %s", infos[2].PkgPath)
	}
}

func TestParse_TypeNotFound(t *testing.T) {
	p := New()

	_, err := p.Parse("github.com/seitarof/gen-env/testdata/envbasic", "NotExist")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParse_NotAStruct(t *testing.T) {
	p := New()

	for _, name := range []string{"Level", "NotStruct"} {
		_, err := p.Parse("github.com/seitarof/gen-env/testdata/envbasic", name)
		if err == nil {
			t.Fatalf("%s: expected error, got nil", name)
		}
		if !strings.Contains(err.Error(), "not a struct type") {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
	}
}

func TestShouldRecurseNestedPackage(t *testing.T) {
	tests := []struct {
		name       string
		nestedPkg  string
		currentPkg string
		modulePath string
		want       bool
	}{
		{
			name:       "same package",
			nestedPkg:  "example.com/mod/a",
			currentPkg: "example.com/mod/a",
			modulePath: "example.com/mod",
			want:       true,
		},
		{
			name:       "same module different package",
			nestedPkg:  "example.com/mod/b",
			currentPkg: "example.com/mod/a",
			modulePath: "example.com/mod",
			want:       true,
		},
		{
			name:       "outside module",
			nestedPkg:  "time",
			currentPkg: "example.com/mod/a",
			modulePath: "example.com/mod",
			want:       false,
		},
		{
			name:       "empty module path only same package allowed",
			nestedPkg:  "example.com/other",
			currentPkg: "example.com/mod/a",
			modulePath: "",
			want:       false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := shouldRecurseNestedPackage(tc.nestedPkg, tc.currentPkg, tc.modulePath)
			if got != tc.want {
				t.Fatalf("shouldRecurseNestedPackage() = %v, want %v", got, tc.want)
			}
		})
	}
}

func fieldByName(fields []FieldInfo, name string) *FieldInfo {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}
