package validator

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestValidatePermutation(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name    string
		order   []int
		n       int
		wantErr bool
	}{
		{name: "identity", order: []int{1, 2, 3}, n: 3},
		{name: "rotation", order: []int{3, 1, 2}, n: 3},
		{name: "single", order: []int{1}, n: 1},
		{name: "empty over empty", order: nil, n: 0},
		{name: "too short", order: []int{1, 2}, n: 3, wantErr: true},
		{name: "too long", order: []int{1, 2, 3, 4}, n: 3, wantErr: true},
		{name: "zero entry", order: []int{0, 1, 2}, n: 3, wantErr: true},
		{name: "out of range", order: []int{1, 2, 4}, n: 3, wantErr: true},
		{name: "duplicate", order: []int{2, 2, 3}, n: 3, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidatePermutation(tt.order, tt.n)
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("ValidatePermutation(%v, %d) = %v, wantErr %v", tt.order, tt.n, errs, tt.wantErr)
			}
		})
	}
}

func TestParseOrderSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    []int
		wantErr bool
	}{
		{name: "plain", spec: "3,1,2", want: []int{3, 1, 2}},
		{name: "spaces", spec: " 2 , 1 ", want: []int{2, 1}},
		{name: "single", spec: "1", want: []int{1}},
		{name: "not a number", spec: "1,x,3", wantErr: true},
		{name: "trailing comma", spec: "1,2,", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOrderSpec(tt.spec)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOrderSpec(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
			if err == nil && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseOrderSpec(%q) = %v, want %v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseEmailLines(t *testing.T) {
	block := "One@Example.com\r\n\n not-an-address \ntwo@example.com\none@example.com\n"
	valid, invalid := ParseEmailLines(block)

	wantValid := []string{"one@example.com", "two@example.com"}
	if !reflect.DeepEqual(valid, wantValid) {
		t.Errorf("valid = %v, want %v", valid, wantValid)
	}
	wantInvalid := []string{"not-an-address"}
	if !reflect.DeepEqual(invalid, wantInvalid) {
		t.Errorf("invalid = %v, want %v", invalid, wantInvalid)
	}
}

func TestPasswordInputUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantMode PasswordMode
		wantVal  string
		wantErr  bool
	}{
		{name: "null keeps", payload: `null`, wantMode: PasswordKeep},
		{name: "empty object keeps", payload: `{}`, wantMode: PasswordKeep},
		{name: "explicit keep drops value", payload: `{"mode":"keep","value":"ignored"}`, wantMode: PasswordKeep},
		{name: "set", payload: `{"mode":"set","value":"hunter2hunter2"}`, wantMode: PasswordSet, wantVal: "hunter2hunter2"},
		{name: "set without value", payload: `{"mode":"set"}`, wantErr: true},
		{name: "generate drops value", payload: `{"mode":"generate","value":"ignored"}`, wantMode: PasswordGenerate},
		{name: "unknown mode", payload: `{"mode":"rotate"}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PasswordInput
			err := json.Unmarshal([]byte(tt.payload), &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal(%s) error = %v, wantErr %v", tt.payload, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if p.Mode != tt.wantMode || p.Value != tt.wantVal {
				t.Errorf("Unmarshal(%s) = {%q %q}, want {%q %q}", tt.payload, p.Mode, p.Value, tt.wantMode, tt.wantVal)
			}
		})
	}
}

func TestValidateUserCreatePasswordRules(t *testing.T) {
	bv := NewBusinessValidator()

	base := func() *UserCreateRequest {
		return &UserCreateRequest{
			Name:     "Jamie Doe",
			Email:    "jamie@example.com",
			Role:     "student",
			SchoolID: 1,
		}
	}

	keep := base()
	if errs := bv.ValidateUserCreate(keep); len(errs) == 0 {
		t.Error("keep mode on a new user should fail validation")
	}

	short := base()
	short.Password = PasswordInput{Mode: PasswordSet, Value: "short"}
	if errs := bv.ValidateUserCreate(short); len(errs) == 0 {
		t.Error("short password should fail validation")
	}

	ok := base()
	ok.Password = PasswordInput{Mode: PasswordGenerate}
	if errs := bv.ValidateUserCreate(ok); len(errs) != 0 {
		t.Errorf("generate mode should pass, got %v", errs)
	}

	profile := base()
	profile.Password = PasswordInput{Mode: PasswordGenerate}
	profile.Alumni = &AlumniProfileRequest{University: "State"}
	if errs := bv.ValidateUserCreate(profile); len(errs) == 0 {
		t.Error("alumni profile on a student should fail validation")
	}
}
