// Package campaignlifecycleservice drives a marketplace campaign from creation
// through invitations and content review to completion. Every state change
// runs in one transaction that also evaluates the progress engine, writes
// notifications and statistics, and saves the campaign row last.
package campaignlifecycleservice
