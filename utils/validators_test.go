package utils

import "testing"

func TestValidateStudentID(t *testing.T) {
	valid := []string{"193-15-1036", "201-15-3639", "22-15-123"}
	invalid := []string{"", "19315-1036", "193-15", "abc-de-fgh", "193-15-1036-x"}

	for _, id := range valid {
		if !ValidateStudentID(id) {
			t.Errorf("%q should be valid", id)
		}
	}
	for _, id := range invalid {
		if ValidateStudentID(id) {
			t.Errorf("%q should be invalid", id)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	valid := []string{"abc12!", "longerPass9#", "p@ssw0rd"}
	invalid := []string{"short", "nodigits!", "nospecial1", "allletters"}

	for _, p := range valid {
		if !ValidatePassword(p) {
			t.Errorf("%q should be valid", p)
		}
	}
	for _, p := range invalid {
		if ValidatePassword(p) {
			t.Errorf("%q should be invalid", p)
		}
	}
}
