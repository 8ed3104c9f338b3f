package cache

// KeyCatalogProducts caches the full product listing. Invalidated on any
// product write and when an order decrements stock.
const KeyCatalogProducts = "catalog:products"
