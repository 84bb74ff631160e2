package main

import "github.com/Rogerio-auto/livechat-monorepo-sub005/internal/app"

// @title Task & Reminder API
// @version 1.0
// @description Multi-tenant task engine with scheduled reminders and realtime fan-out.
// @BasePath /
func main() {
	app.Run()
}
