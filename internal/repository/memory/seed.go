package memory

import "github.com/Freeeeeet/tutoring_toolbox/internal/model"

// SeedDemo fills the store with the demo directory used for local runs:
// one admin, three tutors, two students and a handful of courses.
func (s *Store) SeedDemo() {
	users := []model.User{
		{ID: 100001, Email: "admin@trevecca.edu", FirstName: "Sarah", LastName: "Johnson", Role: model.RoleAdmin},
		{ID: 100002, Email: "jsmith@trevecca.edu", FirstName: "John", LastName: "Smith", Role: model.RoleStudent},
		{ID: 100003, Email: "emily.davis@trevecca.edu", FirstName: "Emily", LastName: "Davis", Role: model.RoleStudent},
		{ID: 100004, Email: "jessica.wilson@trevecca.edu", FirstName: "Jessica", LastName: "Wilson", Role: model.RoleStudent},
		{ID: 100005, Email: "michael.brown@trevecca.edu", FirstName: "Michael", LastName: "Brown", Role: model.RoleStudent},
		{ID: 100006, Email: "david.martinez@trevecca.edu", FirstName: "David", LastName: "Martinez", Role: model.RoleStudent},
	}
	for _, u := range users {
		s.AddUser(u)
	}

	s.AddTutor(model.Tutor{UserID: 100002, Subjects: []string{"Computer Science", "Programming", "Algorithms"}, HourlyLimit: 15, Active: true})
	s.AddTutor(model.Tutor{UserID: 100003, Subjects: []string{"Mathematics", "Calculus", "Statistics"}, HourlyLimit: 12, Active: true})
	s.AddTutor(model.Tutor{UserID: 100004, Subjects: []string{"Biology", "Chemistry", "Anatomy"}, HourlyLimit: 10, Active: true})

	courses := []model.Course{
		{ID: 1, Code: "CS101", Title: "Introduction to Computer Science", Department: "Computer Science"},
		{ID: 2, Code: "CS201", Title: "Data Structures", Department: "Computer Science"},
		{ID: 3, Code: "MATH101", Title: "Calculus I", Department: "Mathematics"},
		{ID: 4, Code: "MATH201", Title: "Calculus II", Department: "Mathematics"},
		{ID: 5, Code: "BIO101", Title: "General Biology", Department: "Biology"},
		{ID: 6, Code: "BIO201", Title: "Human Anatomy", Department: "Biology"},
		{ID: 7, Code: "CHEM101", Title: "General Chemistry", Department: "Chemistry"},
		{ID: 8, Code: "PHYS101", Title: "Physics I", Department: "Physics"},
		{ID: 9, Code: "ENG101", Title: "English Composition", Department: "English"},
	}
	for _, c := range courses {
		s.AddCourse(c)
	}
}
