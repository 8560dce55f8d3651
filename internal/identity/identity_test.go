package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		wantName string
		wantID   string
	}{
		{filename: "", wantName: "unknown", wantID: "unknown"},
		{filename: ".ipynb", wantName: "unknown", wantID: "unknown"},
		{filename: "Assignment 1 - john doe.ipynb", wantName: "John Doe", wantID: "john_doe"},
		{filename: "Lab 2 - O'Neil.ipynb", wantName: "O'Neil", wantID: "oneil"},
		{filename: "lab3-jane.ipynb", wantName: "Jane", wantID: "jane"},
		{filename: "roll123.ipynb", wantName: "roll123", wantID: "roll123"},
		{filename: "ROLL7.ipynb", wantName: "roll7", wantID: "roll7"},
		{filename: "42.ipynb", wantName: "student_42", wantID: "42"},
		{filename: "alice.ipynb", wantName: "Alice", wantID: "alice"},
		{filename: "hw2_bob_smith.ipynb", wantName: "Bob Smith", wantID: "bob_smith"},
		{filename: "Lab_1_roll55.ipynb", wantName: "student_1", wantID: "1"},
		{filename: "project_final_roll9.ipynb", wantName: "roll9", wantID: "roll9"},
		{filename: "lab_assignment.ipynb", wantName: "Lab Assignment", wantID: "lab_assignment"},
		{filename: "mary_jones.ipynb", wantName: "Mary Jones", wantID: "mary_jones"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			name, id := FromFilename(tt.filename)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestTitleCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Abc1Def", titleCase("abc1def"))
	assert.Equal(t, "Hello World", titleCase("hELLO wORLD"))
}
