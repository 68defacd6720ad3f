package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStudentsCSVWithTeacherColumn(t *testing.T) {
	rows := []ProgressCSVRow{
		{Email: "student@x.com", TeacherEmail: "", Completed: 0, Total: 5, Percent: 0},
		{Email: "other@x.com", TeacherEmail: "teacher@x.com", Completed: 3, Total: 5, Percent: 60},
	}

	got := string(StudentsCSV(rows, true))
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")

	assert.Equal(t, "Email Estudiante,Docente,Lecciones Completadas,Total Lecciones,Progreso (porcentaje)", lines[0])
	assert.Equal(t, `"student@x.com","",0,5,0`, lines[1])
	assert.Equal(t, `"other@x.com","teacher@x.com",3,5,60`, lines[2])
}

func TestStudentsCSVWithoutTeacherColumn(t *testing.T) {
	rows := []ProgressCSVRow{
		{Email: "student@x.com", Completed: 2, Total: 4, Percent: 50},
	}

	got := string(StudentsCSV(rows, false))
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")

	assert.Equal(t, "Email,Lecciones Completadas,Total Lecciones,Progreso (porcentaje)", lines[0])
	assert.Equal(t, `"student@x.com",2,4,50`, lines[1])
}

func TestStudentsCSVFileName(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "estudiantes_Robotica_Basica_20250314.csv", StudentsCSVFileName("Robotica Basica", now))
	assert.Equal(t, "estudiantes_A_B_20250314.csv", StudentsCSVFileName("A, B", now))
}
