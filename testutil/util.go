/*
Copyright 2026 The Nixpacks Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package testutil

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type BadReader struct{}

func (BadReader) Read([]byte) (int, error) { return 0, fmt.Errorf("Bad read") }

type BadWriter struct{}

func (BadWriter) Write([]byte) (int, error) { return 0, fmt.Errorf("Bad write") }

// T wraps a *testing.T with assertion helpers and automatic
// teardown of overridden values.
type T struct {
	*testing.T

	teardownActions []func()
}

// Run runs f as a subtest of t called name.
func Run(t *testing.T, name string, f func(t *T)) {
	if name == "" {
		name = t.Name()
	}

	t.Run(name, func(tt *testing.T) {
		tt.Helper()

		testWrapper := &T{T: tt}
		defer testWrapper.Teardown()

		f(testWrapper)
	})
}

// Override sets the value of a global variable for the duration of the test.
// dest must be a pointer to a value of the same type as tmp.
func (t *T) Override(dest, tmp interface{}) {
	t.Helper()

	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr {
		t.Fatalf("not a pointer: %T", dest)
	}
	original := destValue.Elem().Interface()

	if err := override(dest, tmp); err != nil {
		t.Fatal(err)
	}
	t.teardownActions = append(t.teardownActions, func() {
		_ = override(dest, original)
	})
}

func override(dest, tmp interface{}) error {
	destValue := reflect.ValueOf(dest)
	if destValue.Kind() != reflect.Ptr {
		return fmt.Errorf("not a pointer: %T", dest)
	}

	tmpV := reflect.ValueOf(tmp)
	if !tmpV.IsValid() {
		tmpV = reflect.Zero(destValue.Elem().Type())
	}
	if !tmpV.Type().AssignableTo(destValue.Elem().Type()) {
		return fmt.Errorf("cannot override %s with %s", destValue.Elem().Type(), tmpV.Type())
	}

	destValue.Elem().Set(tmpV)
	return nil
}

func (t *T) Teardown() {
	for i := len(t.teardownActions) - 1; i >= 0; i-- {
		t.teardownActions[i]()
	}
}

func (t *T) CheckDeepEqual(expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	CheckDeepEqual(t.T, expected, actual, opts...)
}

func (t *T) CheckNil(actual interface{}) {
	t.Helper()
	if !isNil(actual) {
		t.Errorf("expected nil, got %+v", actual)
	}
}

func (t *T) CheckNotNil(actual interface{}) {
	t.Helper()
	if isNil(actual) {
		t.Error("expected a non-nil value")
	}
}

func (t *T) CheckTrue(actual bool) {
	t.Helper()
	if !actual {
		t.Error("expected true, got false")
	}
}

func (t *T) CheckFalse(actual bool) {
	t.Helper()
	if actual {
		t.Error("expected false, got true")
	}
}

func (t *T) CheckEmpty(actual interface{}) {
	t.Helper()
	v := reflect.ValueOf(actual)
	if !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array, reflect.Chan:
		if v.Len() != 0 {
			t.Errorf("expected empty, got %+v", actual)
		}
	default:
		t.Errorf("cannot check emptiness of %T", actual)
	}
}

func (t *T) CheckContains(expected, actual string) {
	t.Helper()
	CheckContains(t.T, expected, actual)
}

func (t *T) CheckNotContains(unexpected, actual string) {
	t.Helper()
	if strings.Contains(actual, unexpected) {
		t.Errorf("[%s] should not contain [%s]", actual, unexpected)
	}
}

func (t *T) CheckNoError(err error) {
	t.Helper()
	CheckError(t.T, false, err)
}

// RequireNoError stops the test when err is not nil.
func (t *T) RequireNoError(err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
}

func (t *T) CheckError(shouldErr bool, err error) {
	t.Helper()
	CheckError(t.T, shouldErr, err)
}

func (t *T) CheckErrorContains(message string, err error) {
	t.Helper()
	CheckErrorContains(t.T, message, err)
}

func (t *T) CheckErrorAndDeepEqual(shouldErr bool, err error, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	CheckErrorAndDeepEqual(t.T, shouldErr, err, expected, actual, opts...)
}

// CheckDeepEqual compares two values using go-cmp and reports a diff.
func CheckDeepEqual(t *testing.T, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("%T differ (-got, +want): %s", expected, diff)
	}
}

func CheckErrorAndDeepEqual(t *testing.T, shouldErr bool, err error, expected, actual interface{}, opts ...cmp.Option) {
	t.Helper()
	if err := checkErr(shouldErr, err); err != nil {
		t.Error(err)
		return
	}
	if !shouldErr {
		CheckDeepEqual(t, expected, actual, opts...)
	}
}

func CheckContains(t *testing.T, expected, actual string) {
	t.Helper()
	if !strings.Contains(actual, expected) {
		t.Errorf("[%s] does not contain [%s]", actual, expected)
	}
}

func CheckErrorContains(t *testing.T, message string, err error) {
	t.Helper()
	if err == nil {
		t.Error("expected error, but returned none")
		return
	}
	if !strings.Contains(err.Error(), message) {
		t.Errorf("expected message [%s] not found in error: %s", message, err.Error())
	}
}

func CheckError(t *testing.T, shouldErr bool, err error) {
	t.Helper()
	if err := checkErr(shouldErr, err); err != nil {
		t.Error(err)
	}
}

func checkErr(shouldErr bool, err error) error {
	if err == nil && shouldErr {
		return fmt.Errorf("expected error, but returned none")
	}
	if err != nil && !shouldErr {
		return fmt.Errorf("unexpected error: %s", err)
	}
	return nil
}

func isNil(actual interface{}) bool {
	if actual == nil {
		return true
	}
	v := reflect.ValueOf(actual)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
