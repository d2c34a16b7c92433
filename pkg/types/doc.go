// Package types defines the Inventory interface, the Category and Item
// entities, configuration, and the sentinel errors shared by every stockroom
// backend and by the conversational workflows built on top of them.
package types
