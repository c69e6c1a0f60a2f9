// Package location manages the places devices are installed in.
package location
