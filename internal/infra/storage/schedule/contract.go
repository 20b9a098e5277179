package schedule

import "github.com/m04kA/SMC-MentorBooking/pkg/dbmetrics"

type DBExecutor = dbmetrics.DBExecutor
