package inmemdb

import (
	"sync"

	"github.com/GraduateProjectPTIT/lms-backend/core/course"
	"github.com/GraduateProjectPTIT/lms-backend/core/order"
	"github.com/GraduateProjectPTIT/lms-backend/core/user"
)

type (
	DB struct {
		user       *userTable
		course     *courseTable
		enrollment *enrollmentTable
		order      *orderTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	courseTable struct {
		table map[string]*course.Course
		mutex sync.RWMutex
	}

	enrollmentTable struct {
		table map[string]*course.Enrollment
		mutex sync.RWMutex
	}

	orderTable struct {
		table map[string]*order.Order
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		course:     &courseTable{table: make(map[string]*course.Course)},
		enrollment: &enrollmentTable{table: make(map[string]*course.Enrollment)},
		order:      &orderTable{table: make(map[string]*order.Order)},
	}
}
