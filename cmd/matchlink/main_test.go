package main

import (
	"testing"
	"unicode/utf8"
)

func TestParseRunArgs(t *testing.T) {
	ra, err := parseRunArgs([]string{"/data/run", "--headless=false", "--debug", "--base-url=https://mirror.example.com"})
	if err != nil {
		t.Fatalf("解析失败：%v", err)
	}
	if ra.Path != "/data/run" {
		t.Fatalf("path = %q", ra.Path)
	}
	if !ra.HeadlessSet || ra.Headless {
		t.Fatalf("headless 不符：%+v", ra)
	}
	if !ra.DebugSet || !ra.Debug {
		t.Fatalf("debug 不符：%+v", ra)
	}
	if !ra.BaseURLSet || ra.BaseURL != "https://mirror.example.com" {
		t.Fatalf("base-url 不符：%+v", ra)
	}
}

func TestParseRunArgs_UnsetFlagsNotMarked(t *testing.T) {
	ra, err := parseRunArgs(nil)
	if err != nil {
		t.Fatalf("解析失败：%v", err)
	}
	if ra.HeadlessSet || ra.DebugSet || ra.BaseURLSet {
		t.Fatalf("未指定的开关被标记为已设置：%+v", ra)
	}
}

func TestParseRunArgs_Invalid(t *testing.T) {
	cases := [][]string{
		{"--headless=maybe"},
		{"--debug=1"},
		{"--base-url"},
		{"--base-url="},
		{"--unknown"},
		{"a", "b"},
	}
	for _, args := range cases {
		if _, err := parseRunArgs(args); err == nil {
			t.Fatalf("期望报错：%v", args)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "a..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	// 多字节字符不允许被从中间切开。
	in := "Tigres UANL vs Pachuca CF México Liga MX"
	for max := 4; max < len(in); max++ {
		got := truncate(in, max)
		if !utf8.ValidString(got) {
			t.Fatalf("truncate(%q, %d) = %q 不是合法 UTF-8", in, max, got)
		}
	}
	if got := truncate("ééééé", 4); got != "é..." {
		t.Fatalf("truncate = %q", got)
	}
}
