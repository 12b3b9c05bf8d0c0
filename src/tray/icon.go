package tray

// SVG source for the tray icon: a dashed selection rectangle with a chat
// bubble in the corner.
const SVGContent = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <!-- Selection rectangle -->
  <rect x="2" y="2" width="9" height="7" fill="none" stroke="#0078d4" stroke-width="1.5" stroke-dasharray="2,1" opacity="0.8"/>

  <!-- Chat bubble -->
  <g>
    <rect x="8" y="8" width="7" height="5" rx="1.5" fill="none" stroke="#333333" stroke-width="1"/>
    <path d="M 9.5 13 L 9 15 L 11 13 Z" fill="#333333"/>
    <line x1="9.5" y1="9.8" x2="13.5" y2="9.8" stroke="#333333" stroke-width="0.7"/>
    <line x1="9.5" y1="11.2" x2="12.5" y2="11.2" stroke="#333333" stroke-width="0.7"/>
  </g>
</svg>`

func getIcon() []byte {
	// TODO: rasterize SVGContent to an ICO at build time and embed it here
	return nil
}
