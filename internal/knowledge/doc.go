// Package knowledge answers caller questions from a small YAML FAQ.
//
// The FAQ is a list of question/answer pairs with optional keywords. A
// default FAQ for the service is embedded in the binary; operators can point
// the service at their own file instead. Search ranks entries by the number
// of normalized query words they share, ignoring stop words.
package knowledge
