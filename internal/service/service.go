package service

import "time"

// timeFormat is the timestamp layout used in all API responses
const timeFormat = time.RFC3339
