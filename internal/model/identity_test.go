package model

import "testing"

func TestIdentity_IsPrivileged(t *testing.T) {
	var nilIdentity *Identity
	if nilIdentity.IsPrivileged() {
		t.Error("nil identity must not be privileged")
	}
	if (&Identity{IsStaff: true}).IsPrivileged() {
		t.Error("staff without superuser must not be privileged")
	}
	if !(&Identity{IsSuperuser: true}).IsPrivileged() {
		t.Error("superuser must be privileged")
	}
}

func TestForumAuthor(t *testing.T) {
	name := "alice"
	empty := ""

	if got := (&ForumQuestion{}).Author(); got != AnonymousAuthor {
		t.Errorf("Author() = %q, want %q", got, AnonymousAuthor)
	}
	if got := (&ForumQuestion{Username: &empty}).Author(); got != AnonymousAuthor {
		t.Errorf("Author() = %q, want %q", got, AnonymousAuthor)
	}
	if got := (&ForumAnswer{Username: &name}).Author(); got != "alice" {
		t.Errorf("Author() = %q, want alice", got)
	}
}

func TestEnumValidation(t *testing.T) {
	for _, c := range ForumCategories {
		if !IsValidForumCategory(string(c)) {
			t.Errorf("%q should be valid", c)
		}
	}
	if IsValidForumCategory("mental health") {
		t.Error("category matching is case-sensitive")
	}

	for _, e := range Emotions {
		if !IsValidEmotion(string(e)) {
			t.Errorf("%q should be valid", e)
		}
	}
	if IsValidEmotion("bored") {
		t.Error("bored is not a valid emotion")
	}
}

func TestScope_Includes(t *testing.T) {
	if !ScopeAll().Includes("anyone") {
		t.Error("ScopeAll should include everyone")
	}
	own := ScopeOwner("alice")
	if !own.Includes("alice") || own.Includes("bob") {
		t.Error("ScopeOwner should include only the owner")
	}
	if (Scope{}).Includes("") {
		t.Error("empty scope should include nobody")
	}
}
