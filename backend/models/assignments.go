package models

import "gorm.io/gorm"

// CourseTeacherAssignment says "this teacher is assigned to this course".
// A teacher cannot be assigned twice to the same course.
type CourseTeacherAssignment struct {
	gorm.Model
	CourseID  uint `gorm:"not null;uniqueIndex:idx_course_teacher"`
	TeacherID uint `gorm:"not null;uniqueIndex:idx_course_teacher"`

	Course  Course
	Teacher User `gorm:"foreignKey:TeacherID"`

	StudentEnrollments []CourseEnrollment
}

// CourseEnrollment says "this student is enrolled in this course", optionally
// under one of the course's teacher assignments. A nil assignment pointer
// means enrolled but not delegated to any teacher.
type CourseEnrollment struct {
	gorm.Model
	CourseID uint `gorm:"not null;uniqueIndex:idx_course_student"`
	UserID   uint `gorm:"not null;uniqueIndex:idx_course_student"`

	CourseTeacherAssignmentID *uint

	Course                  Course
	User                    User
	CourseTeacherAssignment *CourseTeacherAssignment
}
