// Package announce sends announcements for a synthetic device, so that
// receivers can be exercised without real hardware.
//
// Each period the adapter list is refreshed and one announcement is sent
// over every adapter with an IPv4 address. The announcement describes that
// adapter as the device's sending interface.
package announce
