package swapi

// AttachImages hangs portrait payloads off the characters that have one.
// Characters with no entry, or an empty entry, are left untouched so the
// uploaded record simply carries no image field.
func AttachImages(characters map[int]Character, images map[int]string) {
	for id, c := range characters {
		if img := images[id]; img != "" {
			c.Image1920 = img
			characters[id] = c
		}
	}
}

// RemapHomeworlds rewrites each character's planet reference from the
// source-side id to the id the target store assigned. It must run only after
// the planet collection has been fully reconciled and uploaded, so the map
// covers both pre-existing and newly created planets. References the map
// cannot resolve degrade to "" rather than failing the run.
func RemapHomeworlds(characters map[int]Character, planetIDs map[int]int64) {
	for id, c := range characters {
		if target, ok := planetIDs[c.Homeworld]; ok {
			c.Planet = target
		} else {
			c.Planet = ""
		}
		characters[id] = c
	}
}
