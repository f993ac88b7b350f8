// mdmhook - MDM webhook receiver
// Receives device lifecycle events and reconciles manifests, directory
// groups, and notifications.
package main

func main() {
	Execute()
}
