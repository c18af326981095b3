package storage

import "testing"

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation(" s3://datasets/people/people-100.csv ")
	if err != nil {
		t.Fatalf("ParseLocation() error = %v", err)
	}
	if loc.Bucket != "datasets" || loc.Key != "people/people-100.csv" {
		t.Fatalf("ParseLocation() = %#v", loc)
	}
	if loc.Ext() != ".csv" {
		t.Fatalf("Ext() = %q", loc.Ext())
	}
	if loc.String() != "s3://datasets/people/people-100.csv" {
		t.Fatalf("String() = %q", loc.String())
	}
}

func TestParseLocationRejectsInvalid(t *testing.T) {
	for _, raw := range []string{
		"/tmp/people.csv",
		"s3://datasets/",
		"s3://Bad_Bucket/key.csv",
		"s3:///key.csv",
	} {
		if _, err := ParseLocation(raw); err == nil {
			t.Fatalf("ParseLocation(%q) expected error", raw)
		}
	}
}

func TestIsObjectURL(t *testing.T) {
	if !IsObjectURL("s3://a/b") {
		t.Fatal("expected s3 url")
	}
	if IsObjectURL("people.csv") {
		t.Fatal("expected local path")
	}
}
