package utils

import (
	"fmt"
	"strings"
	"time"
)

// ProgressCSVRow is one exported student line.
type ProgressCSVRow struct {
	Email        string
	TeacherEmail string
	Completed    int
	Total        int
	Percent      int
}

// StudentsCSV renders the per-course progress export. The admin variant
// carries a teacher column; the teacher-facing export omits it since every
// row belongs to the requesting teacher. String fields are always quoted.
func StudentsCSV(rows []ProgressCSVRow, includeTeacher bool) []byte {
	var b strings.Builder

	if includeTeacher {
		b.WriteString("Email Estudiante,Docente,Lecciones Completadas,Total Lecciones,Progreso (porcentaje)\n")
	} else {
		b.WriteString("Email,Lecciones Completadas,Total Lecciones,Progreso (porcentaje)\n")
	}

	for _, r := range rows {
		if includeTeacher {
			fmt.Fprintf(&b, "%q,%q,%d,%d,%d\n", r.Email, r.TeacherEmail, r.Completed, r.Total, r.Percent)
		} else {
			fmt.Fprintf(&b, "%q,%d,%d,%d\n", r.Email, r.Completed, r.Total, r.Percent)
		}
	}

	return []byte(b.String())
}

// StudentsCSVFileName builds the export attachment name from the course title.
func StudentsCSVFileName(courseTitle string, now time.Time) string {
	sanitized := strings.ReplaceAll(courseTitle, " ", "_")
	sanitized = strings.ReplaceAll(sanitized, ",", "")
	return fmt.Sprintf("estudiantes_%s_%s.csv", sanitized, now.Format("20060102"))
}
