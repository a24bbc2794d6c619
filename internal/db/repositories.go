package db

import "gorm.io/gorm"

type Repositories struct {
	Users           *UserRepository
	Readings        *ReadingRepository
	Targets         *TargetsRepository
	CalendarConfigs *CalendarConfigRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:           NewUserRepository(database),
		Readings:        NewReadingRepository(database),
		Targets:         NewTargetsRepository(database),
		CalendarConfigs: NewCalendarConfigRepository(database),
	}
}
