package schema

import "strings"

const (
	MethodInitialize              = "initialize"
	MethodNotificationInitialized = "notifications/initialized"

	// NotificationPrefix marks one-way methods that never carry an id.
	NotificationPrefix = "notifications/"
)

// ReservedMethods lists the methods answered without contacting a backend.
var ReservedMethods = []string{MethodInitialize, MethodNotificationInitialized}

// IsReserved reports whether method is answered locally.
func IsReserved(method string) bool {
	for _, candidate := range ReservedMethods {
		if candidate == method {
			return true
		}
	}
	return false
}

// IsNotification reports whether method names a notification.
func IsNotification(method string) bool {
	return strings.HasPrefix(method, NotificationPrefix)
}
